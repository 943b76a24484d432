// Package discovery finds routers on the local network and reports which
// local address the operator's machine would use to reach them.
//
// Scanning browses mDNS "_http._tcp" services and keeps the entries whose
// instance or host name identifies a FRITZ!Box:
//
//	routers, err := discovery.NewScanner().Scan(ctx)
//	for _, r := range routers {
//	    fmt.Println(r.Address())
//	}
//
// A freshly reset router usually does not announce itself until it has an
// address in the LAN, so an empty scan result is not an error.
//
// LocalAddress resolves the machine's own hostname first and falls back to
// the source address of a UDP socket "connected" to a public resolver. No
// packet is sent by the fallback.
package discovery
