/*

Process of compilation

Program Text ->
	lex ->
Token Stream (token) ->
	parse ->
Abstract Syntax Tree (ast) ->
	back ->
Class Files (classfile) ->
	java

Symbols exported by one unit (sym.Registry) are saved next to the classes
and merged into the registry of the units using them.

*/
package compiler
