package middleware

import (
	"encoding/json"
	"net/http"
)

// writeErr uses the same envelope as the handlers package.
func writeErr(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
		"code":    errCode,
	})
}
