package formatting

import (
	"encoding/json"
	"fmt"
)

// PrettyJSON formats any value as indented JSON, falling back to %v when
// the value cannot be marshaled.
//
// Example:
//
//	fmt.Println(formatting.PrettyJSON(map[string]any{"version": "3f2a9c1b"}))
//	// Output:
//	// {
//	//   "version": "3f2a9c1b"
//	// }
func PrettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
