// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: © 2017 LabStack and Echo contributors

package helpers

// IndexKey returns the binding key of the element identified by token under prefix,
// e.g. "items[0]" or "[low]" for an empty prefix.
func IndexKey(prefix, token string) string {
	return prefix + "[" + token + "]"
}

// PropertyKey returns the binding key of property name under prefix, e.g. "items[0].Name".
func PropertyKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	if name == "" {
		return prefix
	}
	return prefix + "." + name
}

// IndexDirectiveKey returns the key carrying explicit element tokens for a collection.
func IndexDirectiveKey(prefix string) string {
	return PropertyKey(prefix, "index")
}

// FlatKey returns the `prefix[]` key used by multi-value submissions without indices.
func FlatKey(prefix string) string {
	return prefix + "[]"
}
