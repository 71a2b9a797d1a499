package catalog

var defaultEntries = []Entry{
	{Name: "Overnight oatmeal with berries", Type: Breakfast, Spice: 0},
	{Name: "Greek yogurt parfait", Type: Breakfast, Spice: 0},
	{Name: "Veggie omelette", Type: Breakfast, Spice: 0},
	{Name: "Avocado toast", Type: Breakfast, Spice: 0},
	{Name: "Huevos rancheros", Type: Breakfast, Spice: 2},
	{Name: "Banana pancakes", Type: Breakfast, Spice: 0},
	{Name: "Spinach and feta frittata", Type: Breakfast, Spice: 0},
	{Name: "Grilled chicken salad", Type: Lunch, Spice: 0},
	{Name: "Quinoa bowl with roasted vegetables", Type: Lunch, Spice: 0},
	{Name: "Turkey club sandwich", Type: Lunch, Spice: 0},
	{Name: "Chickpea salad wrap", Type: Lunch, Spice: 0},
	{Name: "Lentil soup", Type: Lunch, Spice: 1},
	{Name: "Spicy black bean tacos", Type: Lunch, Spice: 2},
	{Name: "Caprese pasta salad", Type: Lunch, Spice: 0},
	{Name: "Baked salmon with asparagus", Type: Dinner, Spice: 0},
	{Name: "Tofu stir-fry", Type: Dinner, Spice: 1},
	{Name: "Beef and broccoli stir-fry", Type: Dinner, Spice: 1},
	{Name: "Chickpea curry", Type: Dinner, Spice: 2},
	{Name: "Pasta primavera", Type: Dinner, Spice: 0},
	{Name: "Pork carnitas tacos", Type: Dinner, Spice: 1},
	{Name: "Mushroom risotto", Type: Dinner, Spice: 0},
	{Name: "Thai green curry", Type: Dinner, Spice: 2},
	{Name: "Apple slices with peanut butter", Type: Snack, Spice: 0},
	{Name: "Hummus and veggie sticks", Type: Snack, Spice: 0},
	{Name: "Trail mix", Type: Snack, Spice: 0},
	{Name: "Chili roasted almonds", Type: Snack, Spice: 2},
	{Name: "Dark chocolate mousse", Type: Dessert, Spice: 0},
	{Name: "Berry sorbet", Type: Dessert, Spice: 0},
	{Name: "Stuffed bell peppers", Type: Entree, Spice: 1},
	{Name: "Eggplant parmesan", Type: Entree, Spice: 0},
	{Name: "Shrimp jambalaya", Type: Main, Spice: 2},
	{Name: "Herb roasted chicken", Type: Main, Spice: 0},
}

// Default returns a catalog seeded with the built-in meals.
func Default() *Catalog {
	return New(defaultEntries)
}
