package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type contextKey string

const tableKey contextKey = "table_id"

// RequireTable parses the {tid} URL parameter and rejects ids outside
// 1..tables. The id is stored in the request context.
func RequireTable(tables int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tidStr := chi.URLParam(r, "tid")
			if tidStr == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing table ID"})
				return
			}

			tableID, err := strconv.Atoi(tidStr)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
				return
			}

			if tableID < 1 || tableID > tables {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
				return
			}

			ctx := context.WithValue(r.Context(), tableKey, tableID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TableIDFromContext returns the id stored by RequireTable, or 0.
func TableIDFromContext(ctx context.Context) int {
	tableID, _ := ctx.Value(tableKey).(int)
	return tableID
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
