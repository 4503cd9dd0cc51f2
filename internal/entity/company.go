package entity

import "strings"

// Company is a tenant record under empresas/{id}.
type Company struct {
	ID     string
	Config CompanyConfig
}

// CompanyConfig holds the owner binding used at sign-in.
type CompanyConfig struct {
	OwnerEmail string `json:"email_dono"`
	TradeName  string `json:"nome_fantasia,omitempty"`
}

// DisplayName prefers the trade name, falling back to the id with
// underscores as spaces, upper-cased.
func (c Company) DisplayName() string {
	if name := strings.TrimSpace(c.Config.TradeName); name != "" {
		return name
	}
	return strings.ToUpper(strings.ReplaceAll(c.ID, "_", " "))
}
