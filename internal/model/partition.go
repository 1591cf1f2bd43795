package model

// Partition assigns triangles to submeshes.
type Partition struct {
	Materials []uint32 // Submesh rank -> material id
	Ranks     []int    // Triangle index -> submesh rank
	Triangles [][]int  // Submesh rank -> triangle indices in file order
}

// PartitionSubmeshes groups triangles by material id. Ranks are handed out
// in order of first appearance while scanning triangles in file order, so
// submesh 0 is the material of the first triangle regardless of its value.
func PartitionSubmeshes(materialIDs []uint32) Partition {
	p := Partition{Ranks: make([]int, len(materialIDs))}
	rankOf := make(map[uint32]int)

	for tri, id := range materialIDs {
		rank, ok := rankOf[id]
		if !ok {
			rank = len(p.Materials)
			rankOf[id] = rank
			p.Materials = append(p.Materials, id)
			p.Triangles = append(p.Triangles, nil)
		}
		p.Ranks[tri] = rank
		p.Triangles[rank] = append(p.Triangles[rank], tri)
	}
	return p
}

// SubmeshCount returns the number of distinct materials.
func (p Partition) SubmeshCount() int {
	return len(p.Materials)
}
