package transaction

import (
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type Transactions struct {
	id      atomic.Uint32
	log     *log.Logger
	session func() *discordgo.Session
}

type Transaction struct {
	id              uint32
	t               string
	interaction     *discordgo.Interaction
	guildID         string
	deferred        bool
	done            bool
	mutex           sync.Mutex
	allTransactions *Transactions
}

// NewTransactions constructs a new object that handles the
// creation of Transaction objects
func NewTransactions(s func() *discordgo.Session, log *log.Logger) *Transactions {
	return &Transactions{
		log:     log,
		session: s,
	}
}

// New constructs a new Transaction object.
// A transaction holds an interaction recieved from the user
// and makes sure it is answered exactly once, either with an
// immediate response or with an edit of a deferred response.
func (t *Transactions) New(tp string, guildID string, interaction *discordgo.Interaction) *Transaction {
	id := t.id.Add(1) % 100000
	t.log.WithFields(log.Fields{
		"ID":      id,
		"Type":    tp,
		"GuildID": guildID,
	}).Debug("Started new transaction ...")
	return &Transaction{
		t:               tp,
		id:              id,
		allTransactions: t,
		guildID:         guildID,
		interaction:     interaction,
	}
}

// Interaction returns the interaction stored in the transaction
func (t *Transaction) Interaction() *discordgo.Interaction {
	return t.interaction
}

// GuildID returns the guildID
func (t *Transaction) GuildID() string {
	return t.guildID
}

// UserID returns the id of the user that created the interaction.
func (t *Transaction) UserID() string {
	if t.interaction == nil {
		return ""
	}
	if t.interaction.Member != nil && t.interaction.Member.User != nil {
		return t.interaction.Member.User.ID
	}
	if t.interaction.User != nil {
		return t.interaction.User.ID
	}
	return ""
}

// Defer acknowledges the interaction, so that the response may
// be sent later, after a long running command completes. Discord
// shows a loading state in the meantime.
func (t *Transaction) Defer(ephemeral bool) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.done || t.deferred {
		return nil
	}
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := t.allTransactions.session().InteractionRespond(
		t.interaction,
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			Data: data,
		},
	)
	if err != nil {
		t.logger().Warnf("Could not defer the interaction: %v", err)
		return err
	}
	t.deferred = true
	t.logger().Trace("Transaction deferred")
	return nil
}

// Respond answers the interaction with the provided embeds and
// components. A deferred interaction has it's response edited.
// Only the first call has any effect.
func (t *Transaction) Respond(ephemeral bool, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.done {
		return nil
	}
	var err error
	if t.deferred {
		edit := &discordgo.WebhookEdit{Embeds: &embeds}
		if components != nil {
			edit.Components = &components
		}
		_, err = t.allTransactions.session().InteractionResponseEdit(
			t.interaction, edit,
		)
	} else {
		data := &discordgo.InteractionResponseData{
			Embeds:     embeds,
			Components: components,
		}
		if ephemeral {
			data.Flags = discordgo.MessageFlagsEphemeral
		}
		err = t.allTransactions.session().InteractionRespond(
			t.interaction,
			&discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: data,
			},
		)
	}
	if err != nil {
		t.logger().Errorf("Could not respond to the interaction: %v", err)
		return err
	}
	t.done = true
	t.logger().Debug("Transaction done")
	return nil
}

// Update answers a message component interaction by replacing the
// embeds and components of the message the component belongs to.
func (t *Transaction) Update(embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.done {
		return nil
	}
	if err := t.allTransactions.session().InteractionRespond(
		t.interaction,
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Embeds:     embeds,
				Components: components,
			},
		},
	); err != nil {
		t.logger().Errorf("Could not update the interaction message: %v", err)
		return err
	}
	t.done = true
	t.logger().Debug("Transaction done (updated)")
	return nil
}

func (t *Transaction) logger() *log.Entry {
	return t.allTransactions.log.WithFields(log.Fields{
		"ID":      t.id,
		"Type":    t.t,
		"GuildID": t.guildID,
	})
}
