package models

import "time"

// HealthProfile is stored as one JSON document per user.
type HealthProfile struct {
	UserID            string    `json:"userId"`
	Name              string    `json:"name,omitempty"`
	Email             string    `json:"email,omitempty"`
	DOB               string    `json:"dob,omitempty"`
	Gender            string    `json:"gender,omitempty"`
	Weight            *float64  `json:"weight,omitempty"`
	Height            *float64  `json:"height,omitempty"`
	BloodType         string    `json:"bloodType,omitempty"`
	Conditions        string    `json:"conditions,omitempty"`
	Medications       string    `json:"medications,omitempty"`
	Allergies         string    `json:"allergies,omitempty"`
	EmergencyName     string    `json:"emergencyName,omitempty"`
	EmergencyRelation string    `json:"emergencyRelation,omitempty"`
	EmergencyPhone    string    `json:"emergencyPhone,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// HealthProfileUpdate carries the client editable fields. Nil pointers mean
// "leave unchanged".
type HealthProfileUpdate struct {
	Name              *string  `json:"name"`
	Email             *string  `json:"email" binding:"omitempty,email"`
	DOB               *string  `json:"dob"`
	Gender            *string  `json:"gender"`
	Weight            *float64 `json:"weight" binding:"omitempty,gte=0"`
	Height            *float64 `json:"height" binding:"omitempty,gte=0"`
	BloodType         *string  `json:"bloodType"`
	Conditions        *string  `json:"conditions"`
	Medications       *string  `json:"medications"`
	Allergies         *string  `json:"allergies"`
	EmergencyName     *string  `json:"emergencyName"`
	EmergencyRelation *string  `json:"emergencyRelation"`
	EmergencyPhone    *string  `json:"emergencyPhone"`
}
