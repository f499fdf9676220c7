package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/devaloi/namechat/internal/client"
	"github.com/devaloi/namechat/internal/hub"
	"github.com/devaloi/namechat/internal/wallet"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS handles WebSocket upgrade requests. The connection belongs to the
// owner in the query string, or to an address from the wallet provider when
// none is given.
func ServeWS(h *hub.Hub, wallets wallet.Provider, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := r.URL.Query().Get("owner")
		if owner == "" {
			addr, err := wallets.Address(r.Context())
			if err != nil {
				writeError(w, r, http.StatusBadRequest, "empty_owner", "owner query param required")
				return
			}
			owner = addr
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("ws upgrade error")
			return
		}

		c := client.New(h, conn, owner, log)
		go c.ReadPump()
		go c.WritePump()
	}
}
