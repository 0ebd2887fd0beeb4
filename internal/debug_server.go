// Package internal holds the developer-facing badger inspector.
// It is served on a separate port and is never exposed by the API router.
package internal

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chatdesk/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
)

//go:embed inspect.html
var templatesFS embed.FS

type InspectRow struct {
	Key       string
	Type      string
	Timestamp string
	EntityID  string
	Detail    string
}

type StatsProvider func() map[string]any

// StartDebugServer serves a read-only HTML view over the store at
// /inspect?prefix=... so a developer can eyeball keys while the
// service runs. Listens on all interfaces.
func StartDebugServer(db *badger.DB, port int, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}

		data := struct {
			Prefix string
			Items  []InspectRow
			Stats  map[string]any
		}{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}

		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, MapRow(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux)
	}()
}

// MapRow decodes a stored value according to its key namespace.
// Values that fail to decode fall back to a RAW row.
func MapRow(key string, val []byte) InspectRow {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var msg domain.Message
		if err := cbor.Unmarshal(val, &msg); err == nil {
			return InspectRow{
				Key:       key,
				Type:      "MESSAGE",
				Timestamp: msg.Timestamp.Format("15:04:05"),
				EntityID:  shorten(msg.ID),
				Detail:    fmt.Sprintf("%s -> %s (%s): %s", msg.SenderID, msg.ChatID, msg.Status, msg.Text),
			}
		}
	case strings.HasPrefix(key, "contact:ts:"):
		parts := strings.Split(key, ":")
		ts := "--:--:--"
		if len(parts) >= 3 {
			if nano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
				ts = time.Unix(0, nano).Format("15:04:05")
			}
		}
		return InspectRow{Key: key, Type: "INDEX", Timestamp: ts, EntityID: shorten(string(val)), Detail: "-"}
	case strings.HasPrefix(key, "contact:"):
		var contact domain.Contact
		if err := cbor.Unmarshal(val, &contact); err == nil {
			return InspectRow{
				Key:       key,
				Type:      "CONTACT",
				Timestamp: contact.CreatedAt.Format("15:04:05"),
				EntityID:  shorten(contact.ID),
				Detail:    fmt.Sprintf("%s %s", contact.Name, contact.Phone),
			}
		}
	case strings.HasPrefix(key, "campaign:"):
		var campaign domain.Campaign
		if err := cbor.Unmarshal(val, &campaign); err == nil {
			return InspectRow{
				Key:       key,
				Type:      "CAMPAIGN",
				Timestamp: campaign.CreatedAt.Format("15:04:05"),
				EntityID:  shorten(campaign.ID),
				Detail:    fmt.Sprintf("%s [%s] sent=%d", campaign.Name, campaign.Status, campaign.Stats.Sent),
			}
		}
	case strings.HasPrefix(key, "template:"):
		var tpl domain.Template
		if err := cbor.Unmarshal(val, &tpl); err == nil {
			return InspectRow{Key: key, Type: "TEMPLATE", Timestamp: "--:--:--", EntityID: shorten(tpl.ID), Detail: tpl.Name}
		}
	}

	return InspectRow{
		Key:       key,
		Type:      "RAW",
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}
}

func shorten(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
