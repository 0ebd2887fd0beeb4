package main

import (
	"chatdesk/domain"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

// Standalone inspector for a chatdesk BadgerDB.
// Usage: go run ./tools -db /path/to/db -prefix msg:
func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, contact:, campaign:, template:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Entity ID", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(v []byte) error {
				table.Append(toRow(key, v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Error while scanning: ", err)
	}

	table.Render()
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithLoggingLevel(badger.ERROR).
		WithReadOnly(true)
	return badger.Open(opts)
}

// toRow decodes a value based on its key namespace. Decode failures
// degrade to a RAW row instead of stopping the whole scan.
func toRow(key string, value []byte) []string {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var msg domain.Message
		if err := cbor.Unmarshal(value, &msg); err != nil {
			break
		}
		return []string{
			key, "MESSAGE",
			msg.Timestamp.Format("15:04:05"),
			short(msg.ID),
			fmt.Sprintf("%s -> %s (%s): %s", msg.SenderID, msg.ChatID, msg.Status, short(msg.Text)),
		}
	case strings.HasPrefix(key, "contact:ts:"):
		// Index entry: value is the contact id, timestamp sits in the key
		parts := strings.Split(key, ":")
		ts := "--:--:--"
		if len(parts) >= 3 {
			if nano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
				ts = time.Unix(0, nano).Format("15:04:05")
			}
		}
		return []string{key, "INDEX", ts, short(string(value)), "-"}
	case strings.HasPrefix(key, "contact:"):
		var contact domain.Contact
		if err := cbor.Unmarshal(value, &contact); err != nil {
			break
		}
		return []string{
			key, "CONTACT",
			contact.CreatedAt.Format("15:04:05"),
			short(contact.ID),
			fmt.Sprintf("%s %s", contact.Name, contact.Phone),
		}
	case strings.HasPrefix(key, "campaign:"):
		var campaign domain.Campaign
		if err := cbor.Unmarshal(value, &campaign); err != nil {
			break
		}
		return []string{
			key, "CAMPAIGN",
			campaign.CreatedAt.Format("15:04:05"),
			short(campaign.ID),
			fmt.Sprintf("%s [%s] audience=%d sent=%d",
				campaign.Name, campaign.Status, len(campaign.AudienceIDs), campaign.Stats.Sent),
		}
	case strings.HasPrefix(key, "template:"):
		var template domain.Template
		if err := cbor.Unmarshal(value, &template); err != nil {
			break
		}
		return []string{key, "TEMPLATE", "--:--:--", short(template.ID), template.Name}
	}

	return []string{key, "RAW", "--:--:--", "--------", "Size: " + strconv.Itoa(len(value)) + " bytes"}
}

func short(s string) string {
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}
