package bot

import (
	"fmt"
	"strings"
	"time"

	"nekoguard/internal/catalog"
	"nekoguard/internal/utils"

	"github.com/bwmarrin/discordgo"
)

const (
	retryMessage    = "Please try again."
	debugChunkLimit = 1900
	defaultPageSize = 15
	codeFence       = "```"
)

// paginate returns one page of entries. page is 1-based and clamped to the
// available range.
func paginate(entries []string, page, size int) (lines []string, current, total int) {
	if size <= 0 {
		size = defaultPageSize
	}
	total = (len(entries) + size - 1) / size
	if total == 0 {
		return nil, 1, 1
	}
	current = min(max(page, 1), total)
	start := (current - 1) * size
	end := min(start+size, len(entries))
	return entries[start:end], current, total
}

func listEmbed(title string, entries []string, page, size, color int) *discordgo.MessageEmbed {
	lines, current, total := paginate(entries, page, size)
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: strings.Join(lines, "\n"),
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d/%d (%d entries)", current, total, len(entries))},
	}
}

func quoted(values []string) []string {
	out := make([]string, len(values))
	for i, value := range values {
		out[i] = "`" + value + "`"
	}
	return out
}

func imageEmbed(title string, entry catalog.ImageEntry, color int) *discordgo.MessageEmbed {
	link := utils.EscapeSpaces(entry.URL)
	embed := &discordgo.MessageEmbed{
		Title: title,
		URL:   link,
		Color: color,
		Image: &discordgo.MessageEmbedImage{URL: link},
	}
	if label, source, ok := entry.Source(); ok {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   label,
			Value:  fmt.Sprintf("[Original Source](%s)", source),
			Inline: true,
		})
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "ID: " + string(entry.SourceID)}
	}
	if entry.Character != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Info", Value: entry.Character})
	}
	return embed
}

func aboutEmbed(color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "About this module",
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Name", Value: "Catgirl Module", Inline: true},
			{Name: "Description", Value: "Displays pseudo-random catgirl images. Image links are kept in separate lists depending on where they are hosted."},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "nekoguard/catalog"},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func countsMessage(prefix string, counts catalog.Counts) string {
	return fmt.Sprintf("%s\n - **%d** catgirls available.\n - **%d** catboys available.\n - **%d** pending images.",
		prefix, counts.Catgirls, counts.Catboys, counts.Pending)
}

func entryURLs(entries []catalog.ImageEntry) []string {
	urls := make([]string, len(entries))
	for i, entry := range entries {
		urls[i] = entry.URL
	}
	return urls
}

// debugChunks lays out urls as code blocks, one per line. A chunk is closed
// before it would exceed limit unless it holds a single oversized line.
func debugChunks(header string, urls []string, limit int) []string {
	var chunks []string
	current := header + codeFence
	lines := 0
	for _, url := range urls {
		line := url + "\n"
		if lines > 0 && len(current)+len(line)+len(codeFence) > limit {
			chunks = append(chunks, current+codeFence)
			current = codeFence
			lines = 0
		}
		current += line
		lines++
	}
	return append(chunks, current+codeFence)
}
