package checklist

// TransferType names a care transition a checklist template covers.
type TransferType string

const (
	AcuteToRehab                 TransferType = "acute_to_rehab"
	RehabToNursingHospital       TransferType = "rehab_to_nursing_hospital"
	NursingHospitalToNursingHome TransferType = "nursing_hospital_to_nursing_home"
	ToHome                       TransferType = "to_home"
)

// Category groups checklist items.
type Category string

const (
	CategoryDocuments      Category = "documents"
	CategoryMedical        Category = "medical"
	CategoryInsurance      Category = "insurance"
	CategoryAdministrative Category = "administrative"
)

type templateItem struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Required    bool     `json:"required"`
}

var templates = map[TransferType][]templateItem{
	AcuteToRehab: {
		{"Physician referral letter", "Referral from the attending physician stating diagnosis and rehabilitation need", CategoryDocuments, true},
		{"Medical record copies", "Admission notes, progress notes and discharge summary from the acute hospital", CategoryDocuments, true},
		{"Imaging on CD", "CT/MRI images and radiology reports", CategoryMedical, true},
		{"Current medication list", "All prescriptions with dose and schedule", CategoryMedical, true},
		{"Insurance eligibility check", "Confirm national health insurance status and copayment class", CategoryInsurance, true},
		{"Rehabilitation hospital admission booking", "Confirm bed availability and admission date", CategoryAdministrative, true},
		{"Functional assessment results", "Latest ADL and cognitive assessment scores", CategoryMedical, false},
		{"Personal belongings", "Clothing, toiletries and assistive devices", CategoryAdministrative, false},
		{"Patient transport", "Arrange ambulance or private transfer", CategoryAdministrative, false},
	},
	RehabToNursingHospital: {
		{"Rehabilitation discharge summary", "Summary of therapy received and functional outcome", CategoryDocuments, true},
		{"Medical record copies", "Progress notes and test results from the rehabilitation stay", CategoryDocuments, true},
		{"Current medication list", "All prescriptions with dose and schedule", CategoryMedical, true},
		{"Long-term-care grade application", "Submit or confirm the long-term-care insurance grade application", CategoryInsurance, true},
		{"Nursing hospital admission contract", "Review and sign the admission agreement", CategoryAdministrative, true},
		{"Therapy progress report", "Therapist notes on goals for continued care", CategoryMedical, false},
		{"Guardian consent form", "Consent for treatment signed by the legal guardian", CategoryDocuments, false},
		{"Patient transport", "Arrange ambulance or private transfer", CategoryAdministrative, false},
	},
	NursingHospitalToNursingHome: {
		{"Long-term-care grade certificate", "Certificate showing the approved long-term-care grade", CategoryInsurance, true},
		{"Health examination certificate", "Recent examination including infectious disease screening", CategoryMedical, true},
		{"Long-term-care benefit contract", "Service contract with the nursing home", CategoryAdministrative, true},
		{"Current medication list", "All prescriptions with dose and schedule", CategoryMedical, true},
		{"Care needs summary", "Daily assistance needs for the nursing home staff", CategoryDocuments, false},
		{"Personal belongings", "Clothing, toiletries and assistive devices", CategoryAdministrative, false},
		{"Family visit plan", "Agree visiting schedule with the facility", CategoryAdministrative, false},
	},
	ToHome: {
		{"Discharge summary", "Summary of the hospital stay and follow-up instructions", CategoryDocuments, true},
		{"Prescriptions for home", "Discharge prescriptions filled at a pharmacy", CategoryMedical, true},
		{"Home care service application", "Apply for home-visit care under long-term-care insurance", CategoryInsurance, true},
		{"Home safety check", "Remove fall hazards and install grab bars", CategoryAdministrative, false},
		{"Assistive device rental", "Wheelchair, hospital bed or walker rental", CategoryInsurance, false},
		{"Outpatient follow-up booking", "Schedule the first outpatient visit after discharge", CategoryMedical, false},
	},
}

// ValidTransferType reports whether a template exists for t.
func ValidTransferType(t string) bool {
	_, ok := templates[TransferType(t)]
	return ok
}

// TemplateSummary describes one template without its items.
type TemplateSummary struct {
	TransferType TransferType `json:"transfer_type"`
	Items        int          `json:"items"`
	Required     int          `json:"required"`
}

// TransferTypes lists the known templates in a stable order.
func TransferTypes() []TemplateSummary {
	order := []TransferType{AcuteToRehab, RehabToNursingHospital, NursingHospitalToNursingHome, ToHome}
	out := make([]TemplateSummary, 0, len(order))
	for _, tt := range order {
		s := TemplateSummary{TransferType: tt, Items: len(templates[tt])}
		for _, it := range templates[tt] {
			if it.Required {
				s.Required++
			}
		}
		out = append(out, s)
	}
	return out
}

// Instantiate builds fresh, incomplete items for a patient from the
// template. It returns nil for an unknown transfer type.
func Instantiate(t TransferType) []*Item {
	tmpl, ok := templates[t]
	if !ok {
		return nil
	}
	items := make([]*Item, 0, len(tmpl))
	for i, ti := range tmpl {
		items = append(items, &Item{
			TransferType: t,
			SortOrder:    i + 1,
			Title:        ti.Title,
			Description:  ti.Description,
			Category:     ti.Category,
			Required:     ti.Required,
		})
	}
	return items
}
