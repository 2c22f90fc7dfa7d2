package httpapi

import (
	"net/http"
	"path/filepath"

	"jobgate-engine/internal/config"
)

// ConfigHandler exposes the loaded configuration read-only. Editing goes
// through the YAML file.
type ConfigHandler struct {
	Config      config.Config
	UserCfgPath string
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cur := h.Config
	cur.LLM.APIKey = ""
	writeJSON(w, cur)
}

func (h ConfigHandler) Path(w http.ResponseWriter, r *http.Request) {
	abs, _ := filepath.Abs(h.UserCfgPath)
	writeJSON(w, map[string]any{"path": abs})
}

func (h ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	_, vr := config.NormalizeAndValidate(h.Config)
	writeJSON(w, vr)
}
