// Package panel turns user intent into protocol requests.
//
// A Panel reads the current input values from an InputSurface, builds the
// matching request, and hands it to a Sender (normally a *session.Session).
// It never waits for the device: replies arrive later through the
// dispatcher and are rendered there.
//
// SubmitAdvanced is the only validating action. When any of the three
// address fields is not an IPv4 literal every bad field is flagged, an error
// status is rendered, and nothing is sent.
package panel
