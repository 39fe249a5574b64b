// Package domain models synthetic blood-donation records and the feature
// engineering that turns them into model inputs.
//
// # Generated Table
//
// Each [DonationRecord] describes one day of donations at one donation center
// for one blood type. Records are produced by [Generate] from a seeded
// [RandomSource] and the package clock, so the same seed and clock reproduce
// the same table field for field.
//
// Calendar conventions:
//
//	day_of_week: 0 = Monday ... 6 = Sunday
//	is_weekend:  day_of_week >= 5
//	dates:       UTC midnight, drawn from the 1095 days ending today
//
// # Factor Model
//
// The donations target is a product of independent multiplicative
// adjustments on a base of 50 donations, plus Normal(0, 10) noise, clamped
// at zero:
//
//	donations = 50 × city × weekend × holiday × seasonal × campaign × rarity × weather + noise
//
//	city:     city_population / 10
//	weekend:  1.3 on Saturday/Sunday
//	holiday:  0.7 on holidays
//	seasonal: 1.2 in Dec/Jan/Feb, 0.8 in Jun/Jul/Aug
//	campaign: ×1.4 social media campaign, ×1.8 emergency appeal (compounding)
//	rarity:   per blood type, 1.0 (O+, A+) up to 1.6 (AB-)
//	weather:  0.6 below 5°C or above 40°C
//
// See [ExpectedDonations] for the noise-free part.
//
// # Features
//
// [FitTransform] derives the 25 model inputs listed by [FeatureNames] and
// fits one [Vocabulary] per categorical column. [Transform] reuses those
// vocabularies; a value never seen during fitting fails with
// [ErrUnknownCategory] instead of receiving a new code.
package domain
