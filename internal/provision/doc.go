// Package provision automates the first-boot setup of a factory-reset
// FRITZ!Box router.
//
// A freshly reset device serves a setup wizard on its LAN address. The
// wizard hands out a session id on its welcome page and then accepts a new
// admin password and a settings backup without further authentication.
// Provision walks the wizard in seven steps over six HTTP exchanges:
//
//  1. GET / and wait for the welcome page (bounded by the welcome timeout)
//  2. extract the 16 hex character session id from the secure_link.lua link
//  3. POST /no_password.lua with the new password
//  4. POST /data.lua to confirm the password page
//  5. GET /system/import.lua to open the import dialog
//  6. POST /data.lua to confirm the import page
//  7. POST /cgi-bin/firmwarecfg with the backup as multipart upload
//
// The backup must have been exported with the same password that is being
// set, since the device uses it to decrypt the import.
//
// Usage:
//
//	p := provision.New(provision.WithLogger(logging.Logger))
//	err := p.Provision(provision.Request{
//		Address:      "192.168.178.1",
//		NewPassword:  password,
//		SettingsFile: "fritzbox.export",
//	}, provision.WriterProgress(os.Stdout))
//
// The first failure ends the run. The returned *Error carries a Kind, the
// failed Step and the State the device had reached; once "set password" has
// succeeded the password is changed even if a later step fails.
//
// Only the FRITZ!Box 3490 with FRITZ!OS 6 has been verified.
package provision
