// Package memman brokers physical-page grants and aliases across
// protection domains. Every live mapping of a frame is recorded in that
// frame's cell as an alias tree rooted at the initial grant; the tree is
// what makes cascade revocation possible without tracking recipients
// explicitly. An advisory address cache accelerates (component, address)
// resolution but is never authoritative: stale entries are detected
// against the cell data and bypassed.
package memman
