package catalog

// fallbackSeedNames is the built-in list of common medications that keeps
// search usable before (or without) the reference file. Names are already in
// canonical form.
var fallbackSeedNames = []string{
	"Acetaminophen",
	"Albuterol",
	"Alprazolam",
	"Amlodipine",
	"Amoxicillin",
	"Amoxil",
	"Aspirin",
	"Atorvastatin",
	"Azithromycin",
	"Bupropion",
	"Carvedilol",
	"Cephalexin",
	"Cetirizine",
	"Ciprofloxacin",
	"Citalopram",
	"Clindamycin",
	"Clonazepam",
	"Clopidogrel",
	"Diltiazem",
	"Diphenhydramine",
	"Doxycycline",
	"Duloxetine",
	"Escitalopram",
	"Famotidine",
	"Fluoxetine",
	"Furosemide",
	"Gabapentin",
	"Glipizide",
	"Hydrochlorothiazide",
	"Ibuprofen",
	"Insulin Glargine",
	"Levothyroxine",
	"Lisinopril",
	"Loratadine",
	"Lorazepam",
	"Losartan",
	"Meloxicam",
	"Metformin",
	"Metoprolol",
	"Montelukast",
	"Omeprazole",
	"Pantoprazole",
	"Pioglitazone",
	"Prednisone",
	"Propranolol",
	"Rosuvastatin",
	"Sertraline",
	"Simvastatin",
	"Tramadol",
	"Trazodone",
	"Venlafaxine",
	"Warfarin",
}

// SeedNameSet returns a fresh copy of the fallback seed set. Callers may use
// it as the working set for a streaming load without affecting other copies.
func SeedNameSet() map[string]struct{} {
	set := make(map[string]struct{}, len(fallbackSeedNames))
	for _, name := range fallbackSeedNames {
		set[name] = struct{}{}
	}
	return set
}
