package zeroshot

// ClassMap maps class names to the image files belonging to each class.
// Iteration order is the order classes were added; the position of a class
// in that order is its label index for classification and embedding runs.
type ClassMap struct {
	classes []string
	files   map[string][]string
}

// NewClassMap constructs an empty map.
func NewClassMap() *ClassMap {
	return &ClassMap{files: make(map[string][]string)}
}

// Add appends a class with its file listing. Adding the same class twice
// replaces the listing without changing the class position.
func (m *ClassMap) Add(class string, files []string) {
	if _, ok := m.files[class]; !ok {
		m.classes = append(m.classes, class)
	}
	m.files[class] = append([]string(nil), files...)
}

// Classes returns the class names in label-index order.
func (m *ClassMap) Classes() []string {
	return append([]string(nil), m.classes...)
}

// Files returns the file listing for a class, or nil if the class is unknown.
func (m *ClassMap) Files(class string) []string {
	files, ok := m.files[class]
	if !ok {
		return nil
	}
	return append([]string(nil), files...)
}

// Len returns the number of classes.
func (m *ClassMap) Len() int {
	return len(m.classes)
}

// TotalFiles returns the file count summed over all classes.
func (m *ClassMap) TotalFiles() int {
	total := 0
	for _, class := range m.classes {
		total += len(m.files[class])
	}
	return total
}
