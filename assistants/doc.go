// Package assistants implements the tool-calling agent loop.
//
// An Assistant drives a conversation with an LLM: it formats the system
// prompt, feeds the session history, dispatches the tool calls the model
// proposes and loops until the model produces a final answer or the run
// hits its iteration bound.
package assistants
