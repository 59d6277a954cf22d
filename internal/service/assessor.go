package service

import (
	"github.com/shopspring/decimal"

	"sanitation-service/internal/model"
)

// violationPenalty is the fixed fine per raised violation, in pesos, set
// by the ordinance cited on the record.
const violationPenalty = 2000

// assessChecklist turns a second-inspection checklist into violation
// drafts. Each trigger is evaluated independently; the order below fixes
// which code leads when several apply. A clean checklist raises nothing.
func assessChecklist(checklist model.InspectionChecklist) []model.Violation {
	type trigger struct {
		failed      bool
		code        model.ViolationCode
		description string
	}

	triggers := []trigger{
		{
			failed:      checklist.SanitaryPermit == model.PermitMarkWithout,
			code:        model.ViolationCodeNoSanitaryPermit,
			description: "Business failed to secure a Sanitary Permit after 2nd inspection.",
		},
		{
			failed:      checklist.HealthCertificates.WithoutCert > 0,
			code:        model.ViolationCodeNoHealthCertificate,
			description: "Employees failed to secure valid Health Certificates after 2nd inspection.",
		},
		{
			failed:      checklist.PotableWaterCert == model.ComplianceMarkX,
			code:        model.ViolationCodeFailureRenewSanitary,
			description: "No valid Certificate of Potability of Drinking Water after 2nd inspection.",
		},
		{
			failed:      checklist.PestControl == model.ComplianceMarkX,
			code:        model.ViolationCodePestControl,
			description: "No valid pest control compliance after 2nd inspection.",
		},
	}

	var drafts []model.Violation
	for _, t := range triggers {
		if !t.failed {
			continue
		}
		drafts = append(drafts, model.Violation{
			Code:             t.code,
			Description:      t.description,
			Penalty:          decimal.NewFromInt(violationPenalty),
			OrdinanceSection: model.DefaultOrdinanceSection,
			OffenseCount:     1,
			Status:           model.ViolationStatusPending,
		})
	}
	return drafts
}
