package catalog

import (
	"encoding/json"
	"reflect"
	"testing"
)

const samplePayload = `[
	{
		"CategoryId": "furniture",
		"ParentCategoryId": "",
		"CategoryName": "Furniture",
		"IsSystem": true,
		"CategoryLists": [
			{
				"CategoryId": "chairs",
				"ParentCategoryId": "furniture",
				"CategoryName": "Chairs",
				"IsSystem": true,
				"CategoryLists": [
					{
						"CategoryId": "office-chairs",
						"ParentCategoryId": "chairs",
						"CategoryName": "Office Chairs",
						"IsSystem": true,
						"CategoryLists": []
					}
				]
			},
			{
				"CategoryId": "tables",
				"ParentCategoryId": "furniture",
				"CategoryName": "Tables",
				"IsSystem": true,
				"CategoryLists": []
			}
		]
	},
	{
		"CategoryId": "my-uploads",
		"ParentCategoryId": "",
		"CategoryName": "My Uploads",
		"IsSystem": false,
		"CategoryLists": []
	}
]`

func decodeSample(t *testing.T) []CategoryRecord {
	t.Helper()
	records, err := DecodeCategoryList(json.RawMessage(samplePayload))
	if err != nil {
		t.Fatalf("DecodeCategoryList: %v", err)
	}
	return records
}

func TestBuildTreeStructure(t *testing.T) {
	tree := BuildTree(decodeSample(t))

	if tree.Len() != 5 {
		t.Fatalf("Len = %d, want 5", tree.Len())
	}
	if got := tree.Roots(); !reflect.DeepEqual(got, []string{"furniture", "my-uploads"}) {
		t.Fatalf("Roots = %v", got)
	}

	furniture := tree.Node("furniture")
	if furniture == nil {
		t.Fatal("furniture node missing")
	}
	if furniture.Parent != "" {
		t.Errorf("root Parent = %q, want empty", furniture.Parent)
	}
	if !reflect.DeepEqual(furniture.Children, []string{"chairs", "tables"}) {
		t.Errorf("furniture.Children = %v", furniture.Children)
	}

	// Parent/child ids stay consistent at every depth.
	office := tree.Node("office-chairs")
	if office == nil || office.Parent != "chairs" {
		t.Fatalf("office-chairs node = %+v", office)
	}
	chairs := tree.Node("chairs")
	if chairs.Parent != "furniture" {
		t.Errorf("chairs.Parent = %q", chairs.Parent)
	}
	if !reflect.DeepEqual(chairs.Children, []string{"office-chairs"}) {
		t.Errorf("chairs.Children = %v", chairs.Children)
	}
}

func TestWalkDepthFirstSourceOrder(t *testing.T) {
	tree := BuildTree(decodeSample(t))

	var ids []string
	var depths []int
	tree.Walk(func(n *Node, depth int) {
		ids = append(ids, n.ID)
		depths = append(depths, depth)
	})

	wantIDs := []string{"furniture", "chairs", "office-chairs", "tables", "my-uploads"}
	wantDepths := []int{0, 1, 2, 1, 0}
	if !reflect.DeepEqual(ids, wantIDs) {
		t.Errorf("walk order = %v, want %v", ids, wantIDs)
	}
	if !reflect.DeepEqual(depths, wantDepths) {
		t.Errorf("walk depths = %v, want %v", depths, wantDepths)
	}
}

func TestPrependRoot(t *testing.T) {
	tree := BuildTree(decodeSample(t))
	tree.PrependRoot(Category{ID: AllCategoryID, Name: "All"})

	roots := tree.Roots()
	if roots[0] != AllCategoryID {
		t.Errorf("first root = %q, want %q", roots[0], AllCategoryID)
	}
	all := tree.Node(AllCategoryID)
	if all == nil || all.Parent != "" || len(all.Children) != 0 {
		t.Errorf("All node = %+v, want parentless leaf", all)
	}
	if tree.Len() != 6 {
		t.Errorf("Len = %d, want 6", tree.Len())
	}
}

func TestFilterScope(t *testing.T) {
	records := decodeSample(t)

	public := FilterScope(records, ScopePublic)
	if len(public) != 1 || public[0].CategoryID != "furniture" {
		t.Errorf("public partition = %+v", public)
	}

	private := FilterScope(records, ScopePrivate)
	if len(private) != 1 || private[0].CategoryID != "my-uploads" {
		t.Errorf("private partition = %+v", private)
	}
}

func TestBuildTreeEmpty(t *testing.T) {
	tree := BuildTree(nil)
	if tree.Len() != 0 {
		t.Errorf("Len = %d, want 0", tree.Len())
	}
	if len(tree.Roots()) != 0 {
		t.Errorf("Roots = %v, want empty", tree.Roots())
	}
	tree.Walk(func(n *Node, depth int) {
		t.Errorf("unexpected visit of %q", n.ID)
	})
}

func TestDecodeCategoryListRejectsNonArray(t *testing.T) {
	if _, err := DecodeCategoryList(json.RawMessage(`{"oops":1}`)); err == nil {
		t.Error("decoding an object succeeded, want error")
	}
}
