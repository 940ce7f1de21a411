package catalog

import "github.com/bissquit/shop-subscriptions/internal/domain"

// FieldType is the input kind of a product edit form field.
type FieldType string

// Field types.
const (
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeSelect   FieldType = "select"
)

// FieldOption is a selectable option of a select field.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FormField describes one input the subscription extension adds to the
// product edit form, together with its currently stored value.
type FormField struct {
	ID          string        `json:"id"`
	Type        FieldType     `json:"type"`
	Label       string        `json:"label"`
	Description string        `json:"description"`
	DescTip     bool          `json:"desc_tip,omitempty"`
	Options     []FieldOption `json:"options,omitempty"`
	Value       string        `json:"value"`
}

func subscriptionFields(isSubscription string, duration domain.SubscriptionDuration) []FormField {
	if isSubscription == "" {
		isSubscription = domain.MetaNo
	}

	return []FormField{
		{
			ID:          domain.MetaIsSubscriptionProduct,
			Type:        FieldTypeCheckbox,
			Label:       "Subscription Product",
			Description: "Enable this product as a subscription.",
			Value:       isSubscription,
		},
		{
			ID:          domain.MetaSubscriptionDuration,
			Type:        FieldTypeSelect,
			Label:       "Subscription Duration",
			Description: "Choose how long this subscription lasts after purchase.",
			DescTip:     true,
			Options: []FieldOption{
				{Value: string(domain.DurationUnset), Label: "Select Duration"},
				{Value: string(domain.DurationOneMonth), Label: "1 Month"},
				{Value: string(domain.DurationOneYear), Label: "1 Year"},
			},
			Value: string(duration),
		},
	}
}
