package provision

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path/filepath"
)

// Device endpoints. These paths and the field names below are what the
// vendor firmware expects and must not change.
const (
	PathWelcome     = "/"
	PathNoPassword  = "/no_password.lua"
	PathData        = "/data.lua"
	PathImport      = "/system/import.lua"
	PathFirmwareCfg = "/cgi-bin/firmwarecfg"
)

// Form field names
const (
	FieldSID            = "sid"
	FieldValidate       = "validate"
	FieldXHR            = "xhr"
	FieldPass           = "pass"
	FieldApply          = "apply"
	FieldNoSIDRenew     = "no_sidrenew"
	FieldOldPage        = "oldpage"
	FieldImportPassword = "ImportExportPassword"
	FieldImportFile     = "ConfigImportFile"
)

// SetPasswordForm is the first half of the password dialog (POST /no_password.lua)
func SetPasswordForm(sid SessionID, password string) url.Values {
	return url.Values{
		FieldSID:      {string(sid)},
		FieldValidate: {"apply"},
		FieldXHR:      {"1"},
		FieldPass:     {password},
	}
}

// ConfirmPasswordForm confirms the password page through data.lua
func ConfirmPasswordForm(sid SessionID, password string) url.Values {
	return url.Values{
		FieldSID:        {string(sid)},
		FieldApply:      {""},
		FieldNoSIDRenew: {""},
		FieldXHR:        {"1"},
		FieldPass:       {password},
		FieldOldPage:    {PathNoPassword},
	}
}

// ConfirmImportForm moves the device UI from the import page to "awaiting import"
func ConfirmImportForm(sid SessionID) url.Values {
	return url.Values{
		FieldSID:        {string(sid)},
		FieldNoSIDRenew: {""},
		FieldXHR:        {"1"},
		FieldOldPage:    {PathImport},
	}
}

// ImportPageQuery is the query string of GET /system/import.lua
func ImportPageQuery(sid SessionID) url.Values {
	return url.Values{FieldSID: {string(sid)}}
}

// WriteUploadForm writes the multipart body of the settings upload into w
// and returns its content type. The backup is encrypted with the password
// it was exported under, which is why the new admin password doubles as
// ImportExportPassword.
func WriteUploadForm(w io.Writer, sid SessionID, password, filename string, settings io.Reader) (string, error) {
	mw := multipart.NewWriter(w)

	if err := mw.WriteField(FieldSID, string(sid)); err != nil {
		return "", fmt.Errorf("failed to write %s field: %w", FieldSID, err)
	}
	if err := mw.WriteField(FieldImportPassword, password); err != nil {
		return "", fmt.Errorf("failed to write %s field: %w", FieldImportPassword, err)
	}

	part, err := mw.CreateFormFile(FieldImportFile, filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("failed to create %s part: %w", FieldImportFile, err)
	}
	if _, err := io.Copy(part, settings); err != nil {
		return "", fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return mw.FormDataContentType(), nil
}

// buildUploadBody reads the settings file fully into a buffer
func buildUploadBody(sid SessionID, password, filename string, settings io.Reader) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	contentType, err := WriteUploadForm(&body, sid, password, filename, settings)
	if err != nil {
		return nil, "", err
	}
	return &body, contentType, nil
}
