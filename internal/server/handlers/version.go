package handlers

import (
	"encoding/json"
	"net/http"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
}

var versionInfo = VersionInfo{Version: "dev"}

// SetVersionInfo records build metadata for the version endpoint.
func SetVersionInfo(version, commit, date string) {
	versionInfo = VersionInfo{Version: version, Commit: commit, Date: date}
}

// VersionHandler serves /version.
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(versionInfo)
}
