// Package telegram delivers rendered profile cards to users through the
// Telegram Bot API. It is the production implementation of notify.Messenger;
// the dialog flow itself lives in the bot front end, outside this repo.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Sender struct {
	bot *tgbotapi.BotAPI
}

// NewSender authenticates against the Bot API with the given token.
func NewSender(token string) (*Sender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &Sender{bot: bot}, nil
}

// SendProfileCard sends the caption with up to a media group of photos.
// With no photos the card degrades to a plain text message.
func (s *Sender) SendProfileCard(ctx context.Context, toUserID int64, caption string, photos [][]byte) error {
	switch len(photos) {
	case 0:
		msg := tgbotapi.NewMessage(toUserID, caption)
		_, err := s.bot.Send(msg)
		return err

	case 1:
		photo := tgbotapi.NewPhoto(toUserID, tgbotapi.FileBytes{
			Name:  "profile_photo.jpg",
			Bytes: photos[0],
		})
		photo.Caption = caption
		_, err := s.bot.Send(photo)
		return err

	default:
		media := make([]interface{}, 0, len(photos))
		for i, blob := range photos {
			item := tgbotapi.NewInputMediaPhoto(tgbotapi.FileBytes{
				Name:  fmt.Sprintf("profile_photo_%d.jpg", i+1),
				Bytes: blob,
			})
			if i == 0 {
				item.Caption = caption
			}
			media = append(media, item)
		}
		group := tgbotapi.NewMediaGroup(toUserID, media)
		_, err := s.bot.SendMediaGroup(group)
		return err
	}
}
