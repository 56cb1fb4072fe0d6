package memory

import "alcyxob/therapy-app/internal/domain"

// DefaultPostures is the built-in posture catalog used when no catalog has
// been loaded into the database.
func DefaultPostures() []domain.Posture {
	return []domain.Posture{
		{
			ID:           "p1",
			DisplayName:  "Postura del niño",
			SanskritName: "Balasana",
			PhotoURL:     "/imagenes/balasana.jpg",
			VideoURL:     "/videos/balasana.mp4",
			DescriptionLines: []string{
				"Arrodíllate y siéntate sobre tus talones.",
				"Inclínate hacia adelante y extiende los brazos.",
				"Apoya la frente en el suelo.",
			},
			BenefitLines:      []string{"Relaja la espalda", "Reduce el estrés"},
			ModificationLines: []string{"Coloca una almohada debajo del torso para mayor comodidad"},
			TherapyTypes:      []string{string(domain.TherapyAnxiety), string(domain.TherapyBackPain)},
		},
		{
			ID:           "p2",
			DisplayName:  "Postura del gato-vaca",
			SanskritName: "Marjaryasana-Bitilasana",
			PhotoURL:     "/imagenes/cat-cow.jpg",
			DescriptionLines: []string{
				"Colócate en cuatro apoyos.",
				"Alterna arqueando y curvando la espalda con la respiración.",
			},
			BenefitLines: []string{"Mejora movilidad espinal", "Disminuye rigidez"},
			TherapyTypes: []string{string(domain.TherapyArthritis), string(domain.TherapyBackPain)},
		},
	}
}
