package zoo

type Animal struct {
	Name string
}

type Herbivore struct {
	Animal
}

type Carnivore struct {
	*Animal
}

type Cow struct {
	Herbivore
	Spots int
}

type Wolf struct {
	Carnivore
}

type Male struct{ Animal }

type Stallion struct {
	Herbivore
	Male
}

type Fence struct {
	Height int
}
