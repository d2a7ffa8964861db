package zeroshot

import "path/filepath"

// Built-in dataset configurations for the Kaggle sources this exercise uses.
// Each function returns a fresh value so callers can tweak a copy safely.

// YogaPoses is the yoga pose classification dataset. The archive extracts
// the class folders one level below a "YogaPoses" wrapper directory.
func YogaPoses() DatasetConfig {
	return DatasetConfig{
		Name:      "yoga",
		Ref:       "ujjwalchowdhury/yoga-pose-classification",
		Classes:   []string{"Downdog", "Warrior2", "Tree", "Plank", "Goddess"},
		Extension: "jpg",
		Layout: LayoutRule{
			Kind:    LayoutWrapped,
			Wrapper: "YogaPoses",
		},
		PromptTemplate: "a photo of a person in the {class} yoga pose",
	}
}

// IntelScenes is the Intel natural-scene dataset. Splits live under doubled
// "seg_<split>/seg_<split>" directories as extracted.
func IntelScenes() DatasetConfig {
	return DatasetConfig{
		Name:           "intel",
		Ref:            "puneet6060/intel-image-classification",
		Classes:        []string{"buildings", "sea", "street", "mountain", "glacier", "forest"},
		Extension:      "jpg",
		SplitPath:      filepath.Join("seg_{split}", "seg_{split}"),
		PromptTemplate: "a photo of a {class} scene",
	}
}

// Fruits360 is the fruits-360 original-size dataset. The archive extracts a
// doubled "fruits-360-original-size" root whose Training/Validation/Test
// directories hold per-variant folders named "<class>_<variant>"; the repair
// merges variants of the same class and keeps the variant folders nested, so
// enumeration is recursive.
func Fruits360() DatasetConfig {
	return DatasetConfig{
		Name: "fruits",
		Ref:  "moltean/fruits",
		// Sorted: label indices for this dataset follow alphabetical
		// class order.
		Classes: []string{
			"apple",
			"apple_braeburn",
			"apple_crimson_snow",
			"apple_golden",
			"apple_granny_smith",
			"apple_hit",
			"apple_pink_lady",
			"apple_red",
			"apple_red_delicios",
			"apple_red_yellow",
			"apple_rotten",
			"cabbage_white",
			"carrot",
			"cucumber",
			"eggplant_violet",
			"pear",
			"zucchini",
			"zucchini_dark",
		},
		Extension: "jpg",
		Recursive: true,
		SplitPath: "{split}",
		Layout: LayoutRule{
			Kind:    LayoutVariantSuffixed,
			Wrapper: filepath.Join("fruits-360-original-size", "fruits-360-original-size"),
			Splits:  []string{"Training", "Validation", "Test"},
		},
		PromptTemplate: "a photo of a {class}",
	}
}

// BuiltinDatasets returns the built-in configurations keyed by name.
func BuiltinDatasets() map[string]DatasetConfig {
	out := make(map[string]DatasetConfig)
	for _, cfg := range []DatasetConfig{YogaPoses(), IntelScenes(), Fruits360()} {
		out[cfg.Name] = cfg
	}
	return out
}
