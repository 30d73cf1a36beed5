// internal/handler/update.go
package handler

import (
	"encoding/json"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxUpdateBytes = 1 << 20

func decodeUpdate(r *http.Request) (*tgbotapi.Update, error) {
	var update tgbotapi.Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		return nil, err
	}
	return &update, nil
}
