package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
	log "github.com/sirupsen/logrus"
)

// LogNotifier writes notifications to the application log. The dispatcher
// always includes it.
type LogNotifier struct{}

func (LogNotifier) Name() string { return "log" }

func (LogNotifier) Send(_ context.Context, n Notification) error {
	log.WithFields(log.Fields{"module": "notify", "kind": n.Kind, "id": n.ID}).
		Infof("%s %s: %s", n.Title, n.Subtitle, n.Body)
	return nil
}

var webhookRegex = regexp.MustCompile(`/api/(?:v\d+/)?webhooks/(\d+)/([\w-]+)`)

// DiscordNotifier posts notifications as embeds to a Discord channel webhook.
type DiscordNotifier struct {
	session *discordgo.Session
	id      string
	token   string
}

func NewDiscordNotifier(webhookURL string) (*DiscordNotifier, error) {
	matches := webhookRegex.FindStringSubmatch(webhookURL)
	if len(matches) != 3 {
		return nil, errors.New("not a Discord webhook URL")
	}
	// Webhook execution needs no bot token.
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &DiscordNotifier{session: session, id: matches[1], token: matches[2]}, nil
}

func (d *DiscordNotifier) Name() string { return "discord" }

func (d *DiscordNotifier) Send(ctx context.Context, n Notification) error {
	params := &discordgo.WebhookParams{
		Username: "VinylVault",
		Embeds:   []*discordgo.MessageEmbed{BuildEmbed(n)},
	}
	if _, err := d.session.WebhookExecute(d.id, d.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("webhook execute: %w", err)
	}
	return nil
}

// BuildEmbed renders a notification as a Discord embed.
func BuildEmbed(n Notification) *discordgo.MessageEmbed {
	color := 0x1DB954 // green for price alerts
	if n.Kind == KindStoreEntry {
		color = 0xE67E22
	}

	var desc strings.Builder
	if n.Subtitle != "" {
		desc.WriteString(fmt.Sprintf("**%s**\n", n.Subtitle))
	}
	desc.WriteString(n.Body)

	ts := n.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	embed := &discordgo.MessageEmbed{
		Title:       n.Title,
		URL:         n.URL,
		Description: desc.String(),
		Color:       color,
		Timestamp:   ts.Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "VinylVault",
		},
	}
	for _, f := range n.Fields {
		if f.Value == "" {
			continue
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: true,
		})
	}
	return embed
}

// ShoutrrrNotifier sends through any shoutrrr service URL (ntfy, telegram,
// pushover, ...). One sender covers all configured URLs.
type ShoutrrrNotifier struct {
	sender *router.ServiceRouter
}

func NewShoutrrrNotifier(urls []string, timeout time.Duration) (*ShoutrrrNotifier, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one URL is required")
	}
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, fmt.Errorf("invalid notification URL: %w", err)
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(stdlog.New(io.Discard, "", 0))
	return &ShoutrrrNotifier{sender: sender}, nil
}

func (s *ShoutrrrNotifier) Name() string { return "shoutrrr" }

func (s *ShoutrrrNotifier) Send(_ context.Context, n Notification) error {
	body := n.Body
	if n.Subtitle != "" {
		body = n.Subtitle + "\n" + n.Body
	}
	params := stypes.Params{}
	params.SetTitle(n.Title)

	for _, err := range s.sender.Send(body, &params) {
		if err != nil {
			return err
		}
	}
	return nil
}
