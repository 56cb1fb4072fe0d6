package domain

// Posture is a catalog entry describing one therapeutic exercise.
// Reference data: the API only reads it.
type Posture struct {
	ID                string   `bson:"_id" json:"id"`
	DisplayName       string   `bson:"displayName" json:"displayName"`
	SanskritName      string   `bson:"sanskritName,omitempty" json:"sanskritName,omitempty"`
	PhotoURL          string   `bson:"photoUrl" json:"photoUrl"`
	VideoURL          string   `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	DescriptionLines  []string `bson:"descriptionLines" json:"descriptionLines"`
	BenefitLines      []string `bson:"benefitLines" json:"benefitLines"`
	ModificationLines []string `bson:"modificationLines,omitempty" json:"modificationLines,omitempty"`
	TherapyTypes      []string `bson:"therapyTypes" json:"therapyTypes"`
}

// SupportsTherapy reports whether the posture is tagged with the therapy type.
func (p *Posture) SupportsTherapy(t TherapyType) bool {
	for _, tt := range p.TherapyTypes {
		if TherapyType(tt) == t {
			return true
		}
	}
	return false
}
