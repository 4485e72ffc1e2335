package export

import (
	"fmt"

	"msc-cert/portal-backend/internal/certificates"
)

// defaultStandard keys the fallback arm of every StandardText table.
const defaultStandard certificates.Standard = "DEFAULT"

// StandardText is the wording printed for a standard.
type StandardText struct {
	Code             string
	ManagementSystem string
	CertText         string
}

// Labels are the fixed captions of the certificate layout.
type Labels struct {
	Title             string
	Number            string
	Address           string
	Conformity        string
	Activities        string
	IAFCode           string
	FirstIssue        string
	Modification      string
	Expiry            string
	Signatory         string
	CheckCert         string
	Approved          string
	DisclaimerPattern string
}

// Brand holds the issuer lines printed in the footer.
type Brand struct {
	Name     string
	Tagline  string
	Address  string
	Contacts string
}

// Language bundles the wording of one certificate language.
type Language struct {
	Labels    Labels
	Standards map[certificates.Standard]StandardText
}

var brand = Brand{
	Name:     "MSC CERTIFICATIONS",
	Tagline:  "MSC CERTIFICATIONS Assessment & Certification",
	Address:  "Rr Ismail Qemali, Tiranë, Shqipëri",
	Contacts: "info@msc-cert.com    www.msc-cert.com",
}

var albanian = Language{
	Labels: Labels{
		Title:             "CERTIFIKATË",
		Number:            "No.",
		Address:           "Adresa:",
		Conformity:        "Është në përputhje me standardin",
		Activities:        "Për aktivitetet e mëposhtme:",
		IAFCode:           "Kodi EA/IAF:",
		FirstIssue:        "Emetimi i Parë",
		Modification:      "Data e Modifikimit",
		Expiry:            "Data e Skadencës",
		Signatory:         "Drejtues Ekzekutiv",
		CheckCert:         "CHECK CERT",
		Approved:          "APPROVED",
		DisclaimerPattern: "Vlefshmëria e kësaj certifikate është subjekt i mbikëqyrjeve vjetore dhe rishikimi të plotë të %s çdo tre vjet. Vlefshmëria e kësaj certifikate është në përputhje me respektimin e rregullave të përcaktuara nga sistemet e MSC CERTIFICATIONS.",
	},
	Standards: map[certificates.Standard]StandardText{
		certificates.StandardISO9001: {
			Code:             "Q",
			ManagementSystem: "Sistemeve të Menaxhimit të Cilësisë",
			CertText:         "CERTIFIKOHET SE SISTEMI I MENAXHIMIT TË CILËSISË I KOMPANISË",
		},
		certificates.StandardISO14001: {
			Code:             "E",
			ManagementSystem: "Sistemeve të Menaxhimit të Mjedisit",
			CertText:         "CERTIFIKOHET SE SISTEMI I MENAXHIMIT TË MJEDISIT I KOMPANISË",
		},
		certificates.StandardISO45001: {
			Code:             "OHS",
			ManagementSystem: "Sistemeve të Menaxhimit të Sigurisë dhe Shëndetit në Punë",
			CertText:         "CERTIFIKOHET SE SISTEMI I MENAXHIMIT TË SIGURISË DHE SHËNDETIT NË PUNË I KOMPANISË",
		},
		certificates.StandardISO22000: {
			Code:             "FS",
			ManagementSystem: "Sistemeve të Menaxhimit të Sigurisë Ushqimore",
			CertText:         "CERTIFIKOHET SE SISTEMI I MENAXHIMIT TË SIGURISË USHQIMORE I KOMPANISË",
		},
		certificates.StandardISO27001: {
			Code:             "IS",
			ManagementSystem: "Sistemeve të Menaxhimit të Sigurisë së Informacionit",
			CertText:         "CERTIFIKOHET SE SISTEMI I MENAXHIMIT TË SIGURISË SË INFORMACIONIT I KOMPANISË",
		},
		certificates.StandardISO50001: {
			Code:             "En",
			ManagementSystem: "Sistemeve të Menaxhimit të Energjisë",
			CertText:         "CERTIFIKOHET SE SISTEMI I MENAXHIMIT TË ENERGJISË I KOMPANISË",
		},
		certificates.StandardISO37001: {
			Code:             "AB",
			ManagementSystem: "Sistemeve të Menaxhimit Kundër Ryshfetit",
			CertText:         "CERTIFIKOHET SE SISTEMI I MENAXHIMIT KUNDËR RYSHFETIT I KOMPANISË",
		},
		certificates.StandardISO39001: {
			Code:             "RT",
			ManagementSystem: "Sistemeve të Menaxhimit të Sigurisë në Trafikun Rrugor",
			CertText:         "CERTIFIKOHET SE SISTEMI I MENAXHIMIT TË SIGURISË NË TRAFIKUN RRUGOR I KOMPANISË",
		},
		certificates.StandardISO22301: {
			Code:             "BC",
			ManagementSystem: "Sistemeve të Menaxhimit të Vazhdimësisë së Biznesit",
			CertText:         "CERTIFIKOHET SE SISTEMI I MENAXHIMIT TË VAZHDIMËSISË SË BIZNESIT I KOMPANISË",
		},
		certificates.StandardHACCP: {
			Code:             "FS",
			ManagementSystem: "Sistemeve HACCP",
			CertText:         "CERTIFIKOHET SE SISTEMI HACCP I KOMPANISË",
		},
		defaultStandard: {
			ManagementSystem: "Sistemeve të Menaxhimit",
			CertText:         "CERTIFIKOHET SE SISTEMI I MENAXHIMIT I KOMPANISË",
		},
	},
}

var english = Language{
	Labels: Labels{
		Title:             "CERTIFICATE",
		Number:            "No.",
		Address:           "Address:",
		Conformity:        "Is in conformity with the standard",
		Activities:        "For the following activities:",
		IAFCode:           "EA/IAF Code:",
		FirstIssue:        "First Issue",
		Modification:      "Modification Date",
		Expiry:            "Expiry Date",
		Signatory:         "Chief Executive",
		CheckCert:         "CHECK CERT",
		Approved:          "APPROVED",
		DisclaimerPattern: "The validity of this certificate is subject to annual surveillance audits and a full review of the %s every three years. The validity of this certificate depends on compliance with the rules established by the MSC CERTIFICATIONS systems.",
	},
	Standards: map[certificates.Standard]StandardText{
		certificates.StandardISO9001: {
			Code:             "Q",
			ManagementSystem: "Quality Management System",
			CertText:         "THIS IS TO CERTIFY THAT THE QUALITY MANAGEMENT SYSTEM OF",
		},
		certificates.StandardISO14001: {
			Code:             "E",
			ManagementSystem: "Environmental Management System",
			CertText:         "THIS IS TO CERTIFY THAT THE ENVIRONMENTAL MANAGEMENT SYSTEM OF",
		},
		certificates.StandardISO45001: {
			Code:             "OHS",
			ManagementSystem: "Occupational Health and Safety Management System",
			CertText:         "THIS IS TO CERTIFY THAT THE OCCUPATIONAL HEALTH AND SAFETY MANAGEMENT SYSTEM OF",
		},
		certificates.StandardISO22000: {
			Code:             "FS",
			ManagementSystem: "Food Safety Management System",
			CertText:         "THIS IS TO CERTIFY THAT THE FOOD SAFETY MANAGEMENT SYSTEM OF",
		},
		certificates.StandardISO27001: {
			Code:             "IS",
			ManagementSystem: "Information Security Management System",
			CertText:         "THIS IS TO CERTIFY THAT THE INFORMATION SECURITY MANAGEMENT SYSTEM OF",
		},
		certificates.StandardISO50001: {
			Code:             "En",
			ManagementSystem: "Energy Management System",
			CertText:         "THIS IS TO CERTIFY THAT THE ENERGY MANAGEMENT SYSTEM OF",
		},
		certificates.StandardISO37001: {
			Code:             "AB",
			ManagementSystem: "Anti-Bribery Management System",
			CertText:         "THIS IS TO CERTIFY THAT THE ANTI-BRIBERY MANAGEMENT SYSTEM OF",
		},
		certificates.StandardISO39001: {
			Code:             "RT",
			ManagementSystem: "Road Traffic Safety Management System",
			CertText:         "THIS IS TO CERTIFY THAT THE ROAD TRAFFIC SAFETY MANAGEMENT SYSTEM OF",
		},
		certificates.StandardISO22301: {
			Code:             "BC",
			ManagementSystem: "Business Continuity Management System",
			CertText:         "THIS IS TO CERTIFY THAT THE BUSINESS CONTINUITY MANAGEMENT SYSTEM OF",
		},
		certificates.StandardHACCP: {
			Code:             "FS",
			ManagementSystem: "HACCP System",
			CertText:         "THIS IS TO CERTIFY THAT THE HACCP SYSTEM OF",
		},
		defaultStandard: {
			ManagementSystem: "Management System",
			CertText:         "THIS IS TO CERTIFY THAT THE MANAGEMENT SYSTEM OF",
		},
	},
}

var languages = map[string]Language{
	"sq": albanian,
	"en": english,
}

func init() {
	for code, lang := range languages {
		if err := lang.validate(); err != nil {
			panic(fmt.Sprintf("export: language %q: %v", code, err))
		}
	}
}

func (l Language) validate() error {
	if _, ok := l.Standards[defaultStandard]; !ok {
		return fmt.Errorf("missing %s standard text", defaultStandard)
	}
	for _, std := range certificates.Standards() {
		if _, ok := l.Standards[std]; !ok {
			return fmt.Errorf("missing standard text for %s", std)
		}
	}
	return nil
}

// LookupLanguage returns the wording for code, falling back to Albanian.
func LookupLanguage(code string) Language {
	if lang, ok := languages[code]; ok {
		return lang
	}
	return albanian
}

// Text returns the wording of std, or the default arm for unknown standards.
func (l Language) Text(std certificates.Standard) StandardText {
	if t, ok := l.Standards[std]; ok {
		return t
	}
	return l.Standards[defaultStandard]
}

// Disclaimer is the footer paragraph for std.
func (l Language) Disclaimer(std certificates.Standard) string {
	return fmt.Sprintf(l.Labels.DisclaimerPattern, l.Text(std).ManagementSystem)
}
