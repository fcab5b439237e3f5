package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"caption-shopify-layer/internal/application"
	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/infrastructure/pubsub"

	"github.com/rs/zerolog"
)

// streamKeepAlive is how often an idle event stream sends a comment line
var streamKeepAlive = 25 * time.Second

type shopResponse struct {
	Shop *domain.Shop `json:"shop"`
}

// logsHandler returns one page of caption events
func logsHandler(shops *application.ShopService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		take, _ := strconv.Atoi(query.Get("take"))
		page, _ := strconv.Atoi(query.Get("page"))

		logs, err := shops.ListLogs(r.Context(), query.Get("shop"), take, page)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to list caption logs")
			writeError(w, http.StatusInternalServerError, "failed to list logs")
			return
		}
		writeJSON(w, http.StatusOK, logs)
	}
}

// logsStreamHandler streams new caption events as server-sent events
func logsStreamHandler(stream *pubsub.CaptionPubSub, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		ctx := r.Context()
		query := r.URL.Query()
		sub := stream.Subscribe(ctx, &pubsub.CaptionEventFilter{
			Shop:       query.Get("shop"),
			FailedOnly: query.Get("failed") == "1",
		})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, ": connected\n\n")
		flusher.Flush()

		ticker := time.NewTicker(streamKeepAlive)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			case event, ok := <-sub.Events:
				if !ok {
					return
				}
				data, err := json.Marshal(event)
				if err != nil {
					logger.Error().Err(err).Msg("Failed to encode caption event")
					continue
				}
				fmt.Fprintf(w, "event: caption\ndata: %s\n\n", data)
				flusher.Flush()
			}
		}
	}
}

// shopHandler returns the most recently installed shop
func shopHandler(shops *application.ShopService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, err := shops.LatestShop(r.Context())
		if err != nil {
			logger.Error().Err(err).Msg("Failed to get latest shop")
			writeError(w, http.StatusInternalServerError, "failed to get shop")
			return
		}
		writeJSON(w, http.StatusOK, shopResponse{Shop: shop})
	}
}
