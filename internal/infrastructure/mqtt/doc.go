// Package mqtt provides the MQTT client for the controller's outward
// notification channel.
//
// The controller publishes deck state changes, panel connectivity and
// dispatch outcomes so companion surfaces (a web configurator, wall
// tablets, other automations) can mirror the deck without polling.
// State topics are retained; a subscriber joining late immediately
// receives the current picture. A Last Will message on
// deckd/system/status flips the controller to offline if the process
// dies without a graceful shutdown.
//
// The Notifier bridges the in-process message bus onto these topics;
// nothing else in the codebase publishes MQTT directly.
//
// Connection management, panic-safe handlers and automatic
// re-subscription after reconnect are handled inside the client; see
// Connect for the setup sequence.
package mqtt
