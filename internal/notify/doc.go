// Package notify dispatches open-slot alerts across the configured channels.
//
// Alerts are small, high-signal messages for the person waiting on a slot. A
// per-item cooldown window (default 10 minutes) gates dispatch, so a slot
// that stays open across many cycles produces one alert per window rather
// than one per cycle.
//
// # Channels
//
// Delivery is delegated to Channel implementations: a shoutrrr router for
// webhook and SMTP destinations, and a Telegram bot for chat push. Channels
// fail independently; one broken webhook never blocks the others.
package notify
