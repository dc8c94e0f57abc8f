package scanner

import (
	"fmt"

	"github.com/lueurxax/media-dedup-bot/internal/core/domain"
)

const (
	msgScanStarted = "🔍 Starting channel scan..."
	msgScanFailed  = "❌ Channel scan failed: could not read channel history."
)

func progressText(walked, retained, processed, duplicates int) string {
	pct := 100.0
	if retained > 0 {
		pct = float64(walked) / float64(retained) * 100
	}

	return fmt.Sprintf("🔍 Scanning messages...\nProgress: %.1f%%\nMedia processed: %d\nDuplicates found: %d",
		pct, processed, duplicates)
}

func summaryText(res domain.ScanResult) string {
	text := fmt.Sprintf("✅ Channel scan completed!\nMedia processed: %d\nDuplicates removed: %d",
		res.Processed, res.Duplicates)

	if res.Failed > 0 {
		text += fmt.Sprintf("\nCould not remove: %d", res.Failed)
	}

	return text
}
