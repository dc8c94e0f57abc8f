package bot

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
)

const (
	msgStart = "👋 I remove repeated photos, videos and files from channels where I am an administrator.\n\n" +
		"Add me to a channel as an administrator with the right to delete messages. " +
		"New posts are checked automatically. Use /help to see the commands."

	msgHelp = "Commands:\n" +
		"/scan - scan a channel for duplicates (private chat), or post it in the channel itself\n" +
		"/stats - show recorded media for this channel, or /stats <channel id> in private chat\n" +
		"/whitelist - reply to a media message to never treat it as a duplicate\n" +
		"/cancel - abort a pending /scan\n" +
		"/help - show this message"

	msgScanPrompt      = "Forward any post from the channel you want to scan, or send its id (starts with -100).\nSend /cancel to abort."
	msgScanCancelled   = "Scan request cancelled."
	msgNothingToCancel = "Nothing to cancel."
	msgScanInProgress  = "⚠️ A scan of this channel is already running."
	msgScanUnavailable = "❌ Could not start the scan. Try again later."
	msgInvalidTarget   = "❌ Forward a post from the channel or send its id (starts with -100)."
	msgNotChannel      = "❌ This is not a channel!"
	msgNotAdmin        = "❌ I need to be an administrator in the channel to scan it!"
	msgAccessDenied    = "❌ I don't have access to this channel or it doesn't exist.\nMake sure I'm added as an admin!"

	msgStatsUsage  = "Usage: /stats <channel id>, or send /stats in the channel."
	msgStatsFailed = "❌ Could not load statistics."

	msgWhitelistUsage  = "Reply to a photo, video or file with /whitelist."
	msgWhitelistFailed = "❌ Could not whitelist this media."
	msgWhitelisted     = "✅ This media will never be treated as a duplicate."

	msgUnknownCommand = "Unknown command. Use /help."
)

func scanStartingText(title string) string {
	return fmt.Sprintf("✅ Starting scan of channel: %s\nThis might take a while...", title)
}

func scanFinishedText(title string, res domain.ScanResult) string {
	text := fmt.Sprintf("Scan of %s finished.\nProcessed: %d\nDuplicates removed: %d", title, res.Processed, res.Duplicates)
	if res.Failed > 0 {
		text += fmt.Sprintf("\nCould not remove: %d", res.Failed)
	}

	return text
}

func scanAbortedText(title string) string {
	return fmt.Sprintf("❌ Scan of %s stopped early. See the channel for details.", title)
}

func statsText(stats domain.MediaStats) string {
	rows := []struct {
		key   string
		value int
	}{
		{"total_media", stats.Total},
		{"photos", stats.Photos},
		{"videos", stats.Videos},
		{"documents", stats.Documents},
	}

	var sb strings.Builder

	sb.WriteString("📊 Channel Statistics:\n")

	for _, row := range rows {
		label := cases.Title(language.English).String(strings.ReplaceAll(row.key, "_", " "))
		fmt.Fprintf(&sb, "%s: %d\n", label, row.value)
	}

	return strings.TrimSuffix(sb.String(), "\n")
}
