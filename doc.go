// Package zeroconf publishes, browses and resolves DNS-SD (Bonjour)
// services through the system daemon, turning its callback driven socket
// API into cancellable operations backed by goroutines and channels.
package zeroconf
