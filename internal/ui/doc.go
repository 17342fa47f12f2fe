// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow around the single tracked generation job:
//  1. [HomeView] : Sign-in status, connection state, and the active job
//  2. [ManualView] : Enter a video URL for manual generation
//  3. [ChaptersView] : Display the generated chapter block for manual jobs
//  4. [ProcessedView] : Browse the backend's processed-videos history
//  5. [SettingsView] : Adjust the creativity and segmentation sliders
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Push-driven changes (job status, router events, session changes) arrive
// through subscription callbacks that are bridged onto the bubbletea message
// loop via a buffered channel, so the connection manager never blocks on the
// UI. The last active view is persisted and restored across runs.
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, enter, esc, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
