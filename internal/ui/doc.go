// Package ui renders git command events as concise console messages so that
// clone and fetch progress stays readable when gitfleet logs in console format.
package ui
