package graph

import "dirportal/internal/domain"

// openTypeExtension is the OData type carried by open-extension payloads.
const openTypeExtension = "microsoft.graph.openTypeExtension"

// Wire types mirror the directory's JSON shapes. Domain types stay free of
// encoding concerns; the mapping lives here.

type wireUser struct {
	ID                string  `json:"id,omitempty"`
	DisplayName       string  `json:"displayName,omitempty"`
	UserPrincipalName string  `json:"userPrincipalName,omitempty"`
	Mail              string  `json:"mail,omitempty"`
	MobilePhone       *string `json:"mobilePhone,omitempty"`
	AccountEnabled    *bool   `json:"accountEnabled,omitempty"`
}

func (u wireUser) toDomain() domain.DirectoryUser {
	out := domain.DirectoryUser{
		ID:                u.ID,
		DisplayName:       u.DisplayName,
		UserPrincipalName: u.UserPrincipalName,
		Mail:              u.Mail,
	}
	if u.MobilePhone != nil {
		out.MobilePhone = *u.MobilePhone
	}
	if u.AccountEnabled != nil {
		out.AccountEnabled = *u.AccountEnabled
	}
	return out
}

type wireUserList struct {
	NextLink string     `json:"@odata.nextLink,omitempty"`
	Value    []wireUser `json:"value"`
}

type wireDirectoryObject struct {
	ODataType   string `json:"@odata.type,omitempty"`
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

func (o wireDirectoryObject) toDomain() domain.DirectoryObject {
	return domain.DirectoryObject{Kind: o.ODataType, ID: o.ID, DisplayName: o.DisplayName}
}

type wireNewUser struct {
	AccountEnabled    bool                `json:"accountEnabled"`
	DisplayName       string              `json:"displayName"`
	MailNickname      string              `json:"mailNickname"`
	UserPrincipalName string              `json:"userPrincipalName"`
	MobilePhone       *string             `json:"mobilePhone,omitempty"`
	PasswordProfile   wirePasswordProfile `json:"passwordProfile"`
}

type wirePasswordProfile struct {
	Password                      string `json:"password"`
	ForceChangePasswordNextSignIn bool   `json:"forceChangePasswordNextSignIn"`
}

// wireUserPatch sends an explicit null to clear the phone when no value is
// set, matching how the directory clears string properties.
type wireUserPatch struct {
	MobilePhone *string `json:"mobilePhone"`
}

type wireOrganizationList struct {
	Value []wireOrganization `json:"value"`
}

type wireOrganization struct {
	VerifiedDomains []wireVerifiedDomain `json:"verifiedDomains"`
}

type wireVerifiedDomain struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
}

// wireExtension carries the roaming-settings open extension. The directory
// stores the language under "lang".
type wireExtension struct {
	ODataType     string `json:"@odata.type,omitempty"`
	ExtensionName string `json:"extensionName,omitempty"`
	ID            string `json:"id,omitempty"`
	Theme         string `json:"theme,omitempty"`
	Color         string `json:"color,omitempty"`
	Language      string `json:"lang,omitempty"`
}

func (e wireExtension) toDomain() domain.RoamingSettings {
	return domain.RoamingSettings{Theme: e.Theme, Color: e.Color, Language: e.Language}
}

type wireError struct {
	Err wireErrorBody `json:"error"`
}

type wireErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
