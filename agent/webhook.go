package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/imkonsowa/restaurants-linebot/flex"
	"github.com/line/line-bot-sdk-go/v7/linebot"
)

func (a *Agent) callback(c *gin.Context) {
	events, err := a.bot.ParseRequest(c.Request)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			c.String(http.StatusBadRequest, "Invalid signature")
			return
		}
		c.String(http.StatusBadRequest, "Invalid request")
		return
	}

	for _, event := range events {
		if event.Type != linebot.EventTypeMessage {
			continue
		}
		message, ok := event.Message.(*linebot.TextMessage)
		if !ok {
			continue
		}

		if err := a.reply(c, event, message.Text); err != nil {
			slog.Error("failed to reply", "request_id", c.GetString(requestIDKey), "error", err)
		}
	}

	c.String(http.StatusOK, "OK")
}

// reply answers one text message with a carousel. Nothing is sent when no card
// could be built.
func (a *Agent) reply(c *gin.Context, event *linebot.Event, text string) error {
	ctx := c.Request.Context()
	locale := flex.DetectLocale(text)

	var session string
	if event.Source != nil {
		session = event.Source.UserID
	}

	answers, err := a.handler.Answer(ctx, session, text)
	if err != nil {
		return err
	}

	var bubbles []flex.Bubble
	for _, answer := range answers {
		if len(bubbles) >= flex.MaxBubbles {
			break
		}

		fields := flex.ParseFields(answer.Text)
		if len(fields) == 0 {
			continue
		}

		ref := answer.PhotoRef
		if ref == "" {
			ref = flex.ExtractPhotoRef(answer.PhotoURL)
		}

		bubbles = append(bubbles, flex.NewBubble(fields, a.photoURL(c, ref), locale))
	}

	slog.Debug("built cards", "request_id", c.GetString(requestIDKey), "locale", locale, "answers", len(answers), "cards", len(bubbles))

	if len(bubbles) == 0 {
		return nil
	}

	message, err := flex.NewCarousel(bubbles).Message()
	if err != nil {
		return fmt.Errorf("failed to build flex message: %w", err)
	}

	if _, err := a.bot.ReplyMessage(event.ReplyToken, message).WithContext(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}

	return nil
}

// photoURL points a card at the photo proxy of this service. Without a configured
// public base the request host is used over https.
func (a *Agent) photoURL(c *gin.Context, ref string) string {
	if ref == "" {
		return ""
	}

	base := a.config.Server.PublicBase()
	if base == "" {
		base = "https://" + c.Request.Host
	}

	return fmt.Sprintf("%s/photo/%s.jpg?v=%d", base, strings.TrimPrefix(ref, "/"), a.now().Unix())
}
