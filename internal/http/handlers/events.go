package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"afdaudit/internal/command"
	"afdaudit/internal/providers/onebot"
)

const maxEventBytes = 1 << 20

// OneBotEvents accepts OneBot v11 HTTP POST deliveries. Work is handed to the
// dispatcher and the platform gets 204 right away.
func (a *App) OneBotEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable body")
		return
	}
	ev, err := onebot.ParseEvent(body)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid event")
		return
	}

	accepted := true
	switch {
	case ev.IsGroupJoinRequest():
		req := ev.JoinRequest()
		accepted = a.Dispatcher.Go("join:"+strconv.FormatInt(req.GroupID, 10), func(ctx context.Context) error {
			_, err := a.Admission.Handle(ctx, req)
			return err
		})
	case ev.IsGroupMessage():
		msg := command.Message{
			GroupID: ev.GroupID,
			UserID:  ev.UserID,
			Text:    ev.RawMessage,
			Manager: ev.IsGroupManager(),
		}
		accepted = a.Dispatcher.Go("command:"+strconv.FormatInt(msg.GroupID, 10), func(ctx context.Context) error {
			_, err := a.Commands.Handle(ctx, msg)
			return err
		})
	default:
		a.Logger.Debug().Str("post_type", ev.PostType).Msg("events: ignored")
	}
	if !accepted {
		a.error(w, http.StatusServiceUnavailable, "shutting_down", "event not accepted")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
