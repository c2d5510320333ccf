package catalog

import "github.com/bitewise/orderflow/internal/models"

// Fixture returns a small deli catalog used by tests and the demo
// configuration: bagels, coffee drinks, and a speed-menu sandwich, with the
// qualifier patterns and upcharge tables the engine exercises.
func Fixture() *StaticCatalog {
	attributes := map[string][]models.AttributeDefinition{
		"bagel": {
			{
				Slug:              "bagel_type",
				DisplayName:       "Bagel",
				QuestionText:      "What kind of bagel would you like?",
				AskInConversation: true,
				InputType:         models.InputTypeSingleSelect,
				DisplayOrder:      1,
				Options: []models.AttributeOption{
					{Slug: "plain", DisplayName: "Plain", Price: 0},
					{Slug: "everything", DisplayName: "Everything", Price: 0},
					{Slug: "sesame", DisplayName: "Sesame", Price: 0},
					{Slug: "poppy", DisplayName: "Poppy", Price: 0},
					{Slug: "onion", DisplayName: "Onion", Price: 0},
					{Slug: "cinnamon_raisin", DisplayName: "Cinnamon Raisin", Price: 0, Aliases: []string{"raisin"}},
					{Slug: "whole_wheat", DisplayName: "Whole Wheat", Price: 0, Aliases: []string{"wheat"}},
					{Slug: "gluten_free", DisplayName: "Gluten Free", Price: 0, Aliases: []string{"gf"}, MustMatch: []string{"gluten free", "gluten-free", "gf"}},
				},
			},
			{
				Slug:              "toasted",
				DisplayName:       "Toasted",
				QuestionText:      "Would you like it toasted?",
				AskInConversation: true,
				InputType:         models.InputTypeBoolean,
				DisplayOrder:      2,
			},
			{
				Slug:         "spread",
				DisplayName:  "Spread",
				InputType:    models.InputTypeSingleSelect,
				DisplayOrder: 3,
				AllowNone:    true,
				Options: []models.AttributeOption{
					{Slug: "butter", DisplayName: "Butter", Price: 0.50},
					{Slug: "cream_cheese", DisplayName: "Cream Cheese", Price: 1.50, Aliases: []string{"cc", "schmear"}},
					{Slug: "scallion_cream_cheese", DisplayName: "Scallion Cream Cheese", Price: 1.75, MustMatch: []string{"scallion"}},
					{Slug: "vegetable_cream_cheese", DisplayName: "Vegetable Cream Cheese", Price: 1.75, MustMatch: []string{"vegetable", "veggie"}},
				},
			},
			{
				Slug:         "protein",
				DisplayName:  "Protein",
				InputType:    models.InputTypeSingleSelect,
				DisplayOrder: 4,
				AllowNone:    true,
				Options: []models.AttributeOption{
					{Slug: "bacon", DisplayName: "Bacon", Price: 2.00},
					{Slug: "ham", DisplayName: "Ham", Price: 2.00},
					{Slug: "sausage", DisplayName: "Sausage", Price: 2.00},
					{Slug: "turkey", DisplayName: "Turkey", Price: 2.50},
					{Slug: "nova", DisplayName: "Nova Scotia Salmon", Price: 6.00, Aliases: []string{"lox", "salmon"}},
				},
			},
			{
				Slug:         "extras",
				DisplayName:  "Extras",
				InputType:    models.InputTypeMultiSelect,
				DisplayOrder: 5,
				AllowNone:    true,
				Options: []models.AttributeOption{
					{Slug: "lettuce", DisplayName: "Lettuce", Price: 0.50},
					{Slug: "tomato", DisplayName: "Tomato", Price: 0.50},
					{Slug: "red_onion", DisplayName: "Red Onion", Price: 0.50, Aliases: []string{"onions"}},
					{Slug: "capers", DisplayName: "Capers", Price: 0.75},
					{Slug: "avocado", DisplayName: "Avocado", Price: 2.00},
					{Slug: "egg", DisplayName: "Egg", Price: 1.50},
					{Slug: "american_cheese", DisplayName: "American Cheese", Price: 0.75, Aliases: []string{"american"}},
					{Slug: "swiss_cheese", DisplayName: "Swiss Cheese", Price: 0.75, Aliases: []string{"swiss"}},
				},
			},
		},
		"coffee": {
			{
				Slug:              "size",
				DisplayName:       "Size",
				QuestionText:      "What size - small or large?",
				AskInConversation: true,
				InputType:         models.InputTypeSingleSelect,
				DisplayOrder:      1,
				Options: []models.AttributeOption{
					{Slug: "small", DisplayName: "Small", Price: 0},
					{Slug: "large", DisplayName: "Large", Price: 0.90},
				},
			},
			{
				Slug:              "temperature",
				DisplayName:       "Temperature",
				QuestionText:      "Hot or iced?",
				AskInConversation: true,
				InputType:         models.InputTypeSingleSelect,
				DisplayOrder:      2,
				Options: []models.AttributeOption{
					{Slug: "hot", DisplayName: "Hot", Price: 0},
					{Slug: "iced", DisplayName: "Iced", Price: 0, Aliases: []string{"cold", "on ice"}},
				},
			},
			{
				Slug:         "milk",
				DisplayName:  "Milk",
				InputType:    models.InputTypeSingleSelect,
				DisplayOrder: 3,
				AllowNone:    true,
				Options: []models.AttributeOption{
					{Slug: "whole_milk", DisplayName: "Whole Milk", Price: 0, IsDefault: true},
					{Slug: "skim_milk", DisplayName: "Skim Milk", Price: 0, MustMatch: []string{"skim"}},
					{Slug: "oat_milk", DisplayName: "Oat Milk", Price: 0.50, MustMatch: []string{"oat"}},
					{Slug: "almond_milk", DisplayName: "Almond Milk", Price: 0.50, MustMatch: []string{"almond"}},
					{Slug: "soy_milk", DisplayName: "Soy Milk", Price: 0.50, MustMatch: []string{"soy"}},
				},
			},
			{
				Slug:         "syrups",
				DisplayName:  "Syrups",
				InputType:    models.InputTypeMultiSelect,
				DisplayOrder: 4,
				AllowNone:    true,
				Options: []models.AttributeOption{
					{Slug: "vanilla", DisplayName: "Vanilla Syrup", Price: 0.65, Aliases: []string{"vanilla"}},
					{Slug: "hazelnut", DisplayName: "Hazelnut Syrup", Price: 0.65, Aliases: []string{"hazelnut"}},
					{Slug: "caramel", DisplayName: "Caramel Syrup", Price: 0.65, Aliases: []string{"caramel"}},
					{Slug: "peppermint", DisplayName: "Peppermint Syrup", Price: 1.00, Aliases: []string{"peppermint"}},
				},
			},
			{
				Slug:         "sweetener",
				DisplayName:  "Sweetener",
				InputType:    models.InputTypeSingleSelect,
				DisplayOrder: 5,
				AllowNone:    true,
				Options: []models.AttributeOption{
					{Slug: "sugar", DisplayName: "Sugar", Price: 0},
					{Slug: "honey", DisplayName: "Honey", Price: 0},
					{Slug: "splenda", DisplayName: "Splenda", Price: 0},
				},
			},
		},
		"speed_menu": {
			{
				Slug:              "bagel_type",
				DisplayName:       "Bagel",
				QuestionText:      "What kind of bagel for that?",
				AskInConversation: true,
				InputType:         models.InputTypeSingleSelect,
				DisplayOrder:      1,
				Options: []models.AttributeOption{
					{Slug: "plain", DisplayName: "Plain", Price: 0},
					{Slug: "everything", DisplayName: "Everything", Price: 0},
					{Slug: "sesame", DisplayName: "Sesame", Price: 0},
					{Slug: "gluten_free", DisplayName: "Gluten Free", Price: 0, MustMatch: []string{"gluten free", "gluten-free", "gf"}},
				},
			},
			{
				Slug:              "toasted",
				DisplayName:       "Toasted",
				QuestionText:      "Would you like it toasted?",
				AskInConversation: true,
				InputType:         models.InputTypeBoolean,
				DisplayOrder:      2,
			},
			{
				Slug:         "condiments",
				DisplayName:  "Condiments",
				InputType:    models.InputTypeMultiSelect,
				DisplayOrder: 3,
				AllowNone:    true,
				Options: []models.AttributeOption{
					{Slug: "mayo", DisplayName: "Mayo", Price: 0, Aliases: []string{"mayonnaise"}},
					{Slug: "mustard", DisplayName: "Mustard", Price: 0},
					{Slug: "ketchup", DisplayName: "Ketchup", Price: 0},
					{Slug: "hot_sauce", DisplayName: "Hot Sauce", Price: 0},
				},
			},
		},
	}

	items := []models.CatalogItem{
		{Name: "Bagel", Family: "bagel", BasePrice: 2.20},
		{Name: "Coffee", Family: "coffee", BasePrice: 3.45, Aliases: []string{"drip coffee"}},
		{Name: "Latte", Family: "coffee", BasePrice: 4.50},
		{Name: "Cappuccino", Family: "coffee", BasePrice: 4.50},
		{Name: "Matcha Latte", Family: "coffee", BasePrice: 5.25, Aliases: []string{"matcha"}},
		{Name: "Chai Latte", Family: "coffee", BasePrice: 4.75, Aliases: []string{"chai"}},
		{Name: "Bacon Egg and Cheese", Family: "speed_menu", BasePrice: 6.95, Aliases: []string{"bec", "bacon egg cheese"}},
		{Name: "Sausage Egg and Cheese", Family: "speed_menu", BasePrice: 6.95, Aliases: []string{"sec"}},
		{Name: "Orange Juice", Family: "", BasePrice: 3.50, Aliases: []string{"oj"}, SkipConfig: true},
	}

	qualifiers := []models.QualifierPattern{
		{Pattern: "extra", Normalized: "extra", Category: "amount"},
		{Pattern: "more", Normalized: "extra", Category: "amount"},
		{Pattern: "lots of", Normalized: "extra", Category: "amount"},
		{Pattern: "heavy on the", Normalized: "extra", Category: "amount"},
		{Pattern: "double", Normalized: "double", Category: "amount"},
		{Pattern: "triple", Normalized: "triple", Category: "amount"},
		{Pattern: "light", Normalized: "light", Category: "amount"},
		{Pattern: "lite", Normalized: "light", Category: "amount"},
		{Pattern: "easy on the", Normalized: "light", Category: "amount"},
		{Pattern: "go easy on the", Normalized: "light", Category: "amount"},
		{Pattern: "a little", Normalized: "light", Category: "amount"},
		{Pattern: "a little bit of", Normalized: "light", Category: "amount"},
		{Pattern: "just a touch of", Normalized: "light", Category: "amount"},
		{Pattern: "a splash of", Normalized: "splash", Category: "amount"},
		{Pattern: "splash of", Normalized: "splash", Category: "amount"},
		{Pattern: "on the side", Normalized: "on the side", Category: "position"},
		{Pattern: "on side", Normalized: "on the side", Category: "position"},
		{Pattern: "crispy", Normalized: "crispy", Category: "preparation"},
		{Pattern: "well done", Normalized: "well done", Category: "preparation"},
	}

	rules := map[string][]UpchargeRule{
		"bagel": {
			{Table: "bread_type", KeyAttr: "bagel_type"},
		},
		"coffee": {
			{Table: "iced_by_size", WhenAttr: "temperature", WhenSlug: "iced", KeyAttr: "size"},
		},
		"speed_menu": {
			{Table: "bread_type", KeyAttr: "bagel_type"},
		},
	}

	upcharges := map[string]float64{
		"bagel/bread_type/plain":           0,
		"bagel/bread_type/everything":      0,
		"bagel/bread_type/sesame":          0,
		"bagel/bread_type/poppy":           0,
		"bagel/bread_type/onion":           0,
		"bagel/bread_type/cinnamon_raisin": 0,
		"bagel/bread_type/whole_wheat":     0,
		"bagel/bread_type/gluten_free":     0.80,
		"speed_menu/bread_type/plain":      0,
		"speed_menu/bread_type/everything": 0,
		"speed_menu/bread_type/sesame":     0,
		"speed_menu/bread_type/gluten_free": 0.80,
		"coffee/iced_by_size/small":        1.65,
		"coffee/iced_by_size/large":        1.10,
	}

	return NewStaticCatalog(attributes, items, qualifiers, rules, upcharges)
}
