// Package app bootstraps and runs docbridge. It loads settings, wires the
// environment resolver, the install/update orchestrator and the client
// lifecycle manager together, and reacts to settings changes by restarting
// the backend connection.
package app
