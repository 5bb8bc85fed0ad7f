package main

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"videogen/internal/domain"
)

const (
	msgInitializing = "Initializing..."
	msgGenerating   = "Generating video..."
	msgReady        = "Video ready: %s"
	msgSaved        = "Saved to %s (%d bytes)"
	msgFailed       = "Generation failed: %s"
	msgCanceled     = "Generation canceled"
	msgUpgrade      = "Upgrade required: %s"
	msgRetrying     = "Connection problem, retrying (attempt %d)"
	msgInterrupted  = "Stopped watching job %s"
)

var supported = []language.Tag{language.English, language.Indonesian}

var matcher = language.NewMatcher(supported)

// indonesian maps every message key to its Indonesian label.
var indonesian = map[string]string{
	msgInitializing: "Menyiapkan...",
	msgGenerating:   "Membuat video...",
	msgReady:        "Video siap: %s",
	msgSaved:        "Disimpan ke %s (%d byte)",
	msgFailed:       "Pembuatan video gagal: %s",
	msgCanceled:     "Pembuatan video dibatalkan",
	msgUpgrade:      "Perlu upgrade: %s",
	msgRetrying:     "Koneksi bermasalah, mencoba lagi (percobaan %d)",
	msgInterrupted:  "Berhenti memantau job %s",
}

func init() {
	for key, msg := range indonesian {
		if err := message.SetString(language.Indonesian, key, msg); err != nil {
			panic("videogen: register label " + strconv.Quote(key) + ": " + err.Error())
		}
	}
}

// newPrinter picks the catalog language from an explicit flag value or a
// POSIX locale such as "id_ID.UTF-8".
func newPrinter(prefs ...string) *message.Printer {
	cleaned := make([]string, 0, len(prefs))
	for _, p := range prefs {
		p = strings.TrimSpace(p)
		if i := strings.IndexAny(p, ".@"); i >= 0 {
			p = p[:i]
		}
		p = strings.ReplaceAll(p, "_", "-")
		if p != "" && p != "C" && p != "POSIX" {
			cleaned = append(cleaned, p)
		}
	}
	tag, _ := language.MatchStrings(matcher, cleaned...)
	base, _ := tag.Base()
	return message.NewPrinter(language.Make(base.String()))
}

// statusLine renders the progress label for a job update.
func statusLine(p *message.Printer, job domain.Job) string {
	switch job.Status {
	case domain.JobStatusPending:
		return p.Sprintf(msgInitializing)
	case domain.JobStatusRunning:
		return p.Sprintf(msgGenerating)
	case domain.JobStatusSucceeded:
		return p.Sprintf(msgReady, job.Result)
	case domain.JobStatusFailed:
		return p.Sprintf(msgFailed, job.FailureReason)
	case domain.JobStatusCanceled:
		return p.Sprintf(msgCanceled)
	default:
		return string(job.Status)
	}
}
