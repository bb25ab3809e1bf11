package handler

import (
	"net/http"
	"time"

	"github.com/openclaw/dbagent-server-go/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
