// Package config adds support for loading configuration from multiple yaml files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"

	log "github.com/sirupsen/logrus"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/imdario/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

func LoadConfiguration(configFiles []string, target interface{}) error {
	for _, configFilePath := range configFiles {
		log.WithFields(log.Fields{"File": configFilePath}).Info("Parsing config file")
		rawContent, err := os.ReadFile(configFilePath)
		if err != nil {
			return err
		}
		cfg := newZeroFor(target)
		err = yaml.Unmarshal(rawContent, cfg)
		if err != nil {
			return err
		}
		err = mergo.Merge(target, cfg, mergo.WithOverride)
		if err != nil {
			return err
		}

	}
	return nil
}

// LoadEnvironment overrides the fields of the target tagged with `env`
// from the environment. The provided dotenv files are loaded into the
// environment first, missing files are skipped and variables that are
// already set are never overwritten by a file.
func LoadEnvironment(envFiles []string, target interface{}) error {
	for _, envFilePath := range envFiles {
		err := godotenv.Load(envFilePath)
		if errors.Is(err, fs.ErrNotExist) {
			log.WithFields(log.Fields{"File": envFilePath}).Debug("Skipping missing env file")
			continue
		}
		if err != nil {
			return fmt.Errorf("could not load env file %s: %w", envFilePath, err)
		}
		log.WithFields(log.Fields{"File": envFilePath}).Info("Loaded env file")
	}
	return env.Parse(target)
}

// When loading YAML we need a zero value of a specific type in order to drive the parsing, but YAML parser does not
// support deep merging (it will just override at the top level) - so `mergo` is used.
// So this means that we now need a `target` zero value for each of the config files, but we like to keep the public API
// which mimics that of YAML (and JSON parsing). Thus the need for a function that will take a pointer to an arbitrary
// struct type and produce a pointer to a new zero value for that type.
// WARNING: this will crash if passed and interface value to something other than a pointer
func newZeroFor(target interface{}) interface{} {
	return reflect.New(reflect.TypeOf(target).Elem()).Interface()
}

// ValidateConfiguration takes (should take) a struct and validates its fields against predefined `validate` tags.
// The underlying validate.Struct method returns two types of errors. validator.InvalidValidationError for when the
// validation breaks, e.g. when a wrong type is passed as the argument (check validate.StructCtx). In this case, we wrap
// things with a plain error. The other case are actual validation errors. In this case a validator.ValidationErrors is
// returned, meaning our abstraction leaks and the assumption/recommendation is to use only error's Error() method,
// i.e. not to resort to type assertions on the returned instance.
func ValidateConfiguration(target interface{}) error {
	validate := validator.New()
	err := validate.Struct(target)
	if _, ok := err.(*validator.InvalidValidationError); ok {
		return fmt.Errorf("could not validate input (%v): %v", target, err)
	}
	return err
}

// LoadAndValidateConfiguration is a convenience method that loads the yaml files, overrides them from the
// environment and validates the result. Make sure to always check for errors returned, certain fields might be
// loaded while others could fail.
func LoadAndValidateConfiguration(configFiles []string, envFiles []string, target interface{}) (err error) {
	err = LoadConfiguration(configFiles, target)
	if err != nil {
		return
	}
	err = LoadEnvironment(envFiles, target)
	if err != nil {
		return
	}
	err = ValidateConfiguration(target)
	return
}
