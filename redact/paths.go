package redact

import (
	"path"
	"regexp"
	"strings"
)

// sensitiveNames are base names that always hold credentials or shell state.
var sensitiveNames = map[string]bool{
	".netrc":           true,
	".npmrc":           true,
	".pypirc":          true,
	".pgpass":          true,
	".git-credentials": true,
	".bashrc":          true,
	".bash_profile":    true,
	".bash_history":    true,
	".zshrc":           true,
	".zprofile":        true,
	".zsh_history":     true,
	".profile":         true,
	".envrc":           true,
	".dockercfg":       true,
	"id_rsa":           true,
	"id_dsa":           true,
	"id_ecdsa":         true,
	"id_ed25519":       true,
	"credentials.json": true,
	"secrets.json":     true,
	"secrets.yaml":     true,
	"secrets.yml":      true,
}

// sensitivePatterns match against the slash-separated path, case-insensitively.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(^|/)\.env(\.[^/]*)?$`),
	regexp.MustCompile(`(?i)\.(pem|key|p12|pfx|jks|keystore|ppk)$`),
	regexp.MustCompile(`(?i)(^|/)\.aws/(credentials|config)$`),
	regexp.MustCompile(`(?i)(^|/)\.ssh/`),
	regexp.MustCompile(`(?i)(^|/)\.kube/config$`),
	regexp.MustCompile(`(?i)(^|/)\.docker/config\.json$`),
	regexp.MustCompile(`(?i)(^|/)\.config/gcloud/`),
	regexp.MustCompile(`(?i)service[-_]?account[^/]*\.json$`),
	regexp.MustCompile(`(?i)(^|/)\.terraformrc$|\.tfvars$`),
}

// IsSensitive reports whether p names a file whose content should not be
// kept verbatim. Relative, absolute and Windows-style paths are accepted.
func IsSensitive(p string) bool {
	if p == "" {
		return false
	}
	p = strings.ReplaceAll(p, `\`, "/")
	if sensitiveNames[strings.ToLower(path.Base(p))] {
		return true
	}
	for _, re := range sensitivePatterns {
		if re.MatchString(p) {
			return true
		}
	}
	return false
}
