package v1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/datalayer/datalayer-go/pkg/config"
)

// ConfigRouter sets up the public configuration route.
func ConfigRouter(cfg *config.Config) http.Handler {
	routes := &configRoutes{cfg: cfg}
	r := chi.NewRouter()
	r.Get("/", routes.getConfig)
	return r
}

type configRoutes struct {
	cfg *config.Config
}

// publicConfig is the subset of the configuration that is safe to hand to
// a frontend. Credentials never appear here.
type publicConfig struct {
	RunURL    string `json:"runUrl"`
	IAMURL    string `json:"iamUrl"`
	ChatModel string `json:"chatModel,omitempty"`
}

func (c *configRoutes) getConfig(w http.ResponseWriter, _ *http.Request) {
	resp := publicConfig{
		RunURL:    c.cfg.RunURL,
		IAMURL:    c.cfg.IAMURL,
		ChatModel: c.cfg.Chat.Model,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode config", http.StatusInternalServerError)
	}
}
