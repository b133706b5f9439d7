package domain

// RoamingSettingsExtensionName is the reverse-DNS identifier of the open
// extension document that stores per-user portal preferences. The name is
// fixed: every read, create, replace, and delete addresses this document.
const RoamingSettingsExtensionName = "com.contoso.roamingSettings"

// RoamingSettings is the per-user preferences document stored as an open
// extension on the signed-in user's directory record.
type RoamingSettings struct {
	Theme    string
	Color    string
	Language string
}
