package main

import (
	"fmt"
	"io"

	"github.com/ZuhaMK/Flight-AI/internal/config"
)

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "╔═══════════════════════════════════════╗")
	fmt.Fprintln(w, "║        Flight-AI startup summary      ║")
	fmt.Fprintln(w, "╠═══════════════════════════════════════╣")
	printRow(w, "LLM", providerLabel(cfg.Providers.LLM))
	for i, fb := range cfg.Providers.Fallbacks {
		printRow(w, fmt.Sprintf("Fallback %d", i+1), providerLabel(fb))
	}
	printRow(w, "History", string(cfg.Conversation.Mode))
	store := "memory"
	if cfg.Sessions.PostgresDSN != "" {
		store = "postgres"
	}
	printRow(w, "Sessions", store)
	if cfg.Flights.ResolveLocations == nil || *cfg.Flights.ResolveLocations {
		printRow(w, "City lookup", "on")
	} else {
		printRow(w, "City lookup", "off")
	}
	printRow(w, "Listen addr", cfg.Server.ListenAddr)
	fmt.Fprintln(w, "╚═══════════════════════════════════════╝")
}

func providerLabel(e config.ProviderEntry) string {
	switch {
	case e.Name == "":
		return "(not configured)"
	case e.Model != "":
		return e.Name + " / " + e.Model
	default:
		return e.Name
	}
}

func printRow(w io.Writer, label, value string) {
	if r := []rune(value); len(r) > 19 {
		value = string(r[:18]) + "…"
	}
	fmt.Fprintf(w, "║  %-12s    : %-19s ║\n", label, value)
}
